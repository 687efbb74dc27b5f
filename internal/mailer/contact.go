// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package mailer

import (
	"fmt"
	"html/template"
	"strings"
)

// ContactRequest is a message left through the public contact form.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Locale  string `json:"locale"`
}

// ContactMessage builds the email forwarding a contact request to the
// operator. Replies go straight to the visitor.
func ContactMessage(operator string, c ContactRequest) Message {
	subject := "Contact form: " + strings.Join(strings.Fields(c.Name), " ")

	var html strings.Builder
	fmt.Fprintf(&html, "<p><strong>%s</strong> &lt;%s&gt;", template.HTMLEscapeString(c.Name), template.HTMLEscapeString(c.Email))
	if c.Locale != "" {
		fmt.Fprintf(&html, " (%s)", template.HTMLEscapeString(c.Locale))
	}
	html.WriteString(" wrote:</p>\n<p>")
	html.WriteString(strings.ReplaceAll(template.HTMLEscapeString(c.Message), "\n", "<br>\n"))
	html.WriteString("</p>\n")

	return Message{
		To:      []string{operator},
		Subject: subject,
		HTML:    html.String(),
		Text:    fmt.Sprintf("%s <%s> wrote:\n\n%s\n", c.Name, c.Email, c.Message),
		ReplyTo: c.Email,
	}
}
