package main

import (
	"crypto/tls"
	"fmt"
	"log"
	"strings"

	"gopkg.in/gomail.v2"
)

type emailRequest struct {
	Subject string
	To      []string
	ReplyTo string
	From    string
	Body    string
}

// sendLoadResultsEmail notifies the requester how a batch load turned out
func (svc *ServiceContext) sendLoadResultsEmail(to string, batchName string, b *batch, loadErr error) {
	var body string
	subject := fmt.Sprintf("Batch %s load complete", batchName)
	if loadErr != nil {
		subject = fmt.Sprintf("Batch %s load FAILED", batchName)
		body = fmt.Sprintf("The load of batch %s failed:\n\n%s\n", batchName, loadErr.Error())
	} else {
		body = fmt.Sprintf("Batch %s loaded successfully: %d issues, %d pages.\n", batchName, b.IssueCount, b.PageCount)
	}

	req := emailRequest{Subject: subject, To: []string{to}, From: svc.SMTP.Sender, ReplyTo: svc.SMTP.Sender, Body: body}
	if err := svc.sendEmail(&req); err != nil {
		log.Printf("ERROR: unable to send load results email: %s", err.Error())
	}
}

// sendPurgeResultsEmail notifies the requester how a batch purge turned out
func (svc *ServiceContext) sendPurgeResultsEmail(to string, batchName string, purgeErr error) {
	var body string
	subject := fmt.Sprintf("Batch %s purge complete", batchName)
	if purgeErr != nil {
		subject = fmt.Sprintf("Batch %s purge FAILED", batchName)
		body = fmt.Sprintf("The purge of batch %s failed:\n\n%s\n", batchName, purgeErr.Error())
	} else {
		body = fmt.Sprintf("Batch %s has been purged.\n", batchName)
	}

	req := emailRequest{Subject: subject, To: []string{to}, From: svc.SMTP.Sender, ReplyTo: svc.SMTP.Sender, Body: body}
	if err := svc.sendEmail(&req); err != nil {
		log.Printf("ERROR: unable to send purge results email: %s", err.Error())
	}
}

func (svc *ServiceContext) sendEmail(request *emailRequest) error {
	mail := gomail.NewMessage()
	mail.SetHeader("MIME-version", "1.0")
	mail.SetHeader("Subject", request.Subject)
	mail.SetHeader("To", request.To...)
	mail.SetHeader("From", request.From)
	if request.ReplyTo != "" {
		mail.SetHeader("Reply-To", request.ReplyTo)
	}
	mail.SetBody("text/plain", request.Body)

	if svc.SMTP.FakeSMTP {
		log.Printf("Email is in dev mode. Logging message instead of sending")
		log.Printf("==================================================")
		mail.WriteTo(log.Writer())
		log.Printf("==================================================")
		return nil
	}

	log.Printf("Sending %s email to %s", request.Subject, strings.Join(request.To, ","))
	if svc.SMTP.Pass != "" {
		dialer := gomail.Dialer{Host: svc.SMTP.Host, Port: svc.SMTP.Port, Username: svc.SMTP.User, Password: svc.SMTP.Pass}
		dialer.TLSConfig = &tls.Config{InsecureSkipVerify: true}
		return dialer.DialAndSend(mail)
	}

	log.Printf("Sending email with no auth")
	dialer := gomail.Dialer{Host: svc.SMTP.Host, Port: svc.SMTP.Port}
	dialer.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	return dialer.DialAndSend(mail)
}
