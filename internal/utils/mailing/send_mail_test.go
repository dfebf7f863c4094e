package mailing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMailerWithoutHostDropsMail(t *testing.T) {
	m := NewMailer(MailConfig{})
	assert.NoError(t, m.SendMail("a@b.c", "s", "b"))
}

func TestSMTPMailerRejectsBadPort(t *testing.T) {
	m := NewMailer(MailConfig{SMTPHost: "localhost", SMTPPort: "smtp"})
	assert.Error(t, m.SendMail("a@b.c", "s", "b"))
}

func TestWelcomeMailMentionsUserAndLink(t *testing.T) {
	subject, body := WelcomeMail(MailConfig{AppURL: "https://foodgram.example"}, "chef")
	assert.NotEmpty(t, subject)
	assert.Contains(t, body, "chef")
	assert.Contains(t, body, "https://foodgram.example")
}
