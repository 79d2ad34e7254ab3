package notifications

import (
	"context"
	"time"

	"github.com/medconnect-gh/booking-platform/internal/email"
	"github.com/medconnect-gh/booking-platform/internal/observability/metrics"
	"github.com/medconnect-gh/booking-platform/pkg/logging"
)

// SMSDispatcher sends one SMS and reports which provider handled it.
// *sms.Failover satisfies this.
type SMSDispatcher interface {
	Send(ctx context.Context, to, body string) (provider string, err error)
}

// Dispatcher composes channel messages for an appointment event,
// attempts delivery, and records one log row per channel attempted.
//
// Dispatch never returns an error: provider outages, missing templates,
// missing credentials and log-write failures all fold into the Result.
// Callers must not treat a failed dispatch as a reason to roll back the
// state change it was attached to.
type Dispatcher struct {
	sms     SMSDispatcher
	email   email.Sender
	logs    LogStore
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
}

// NewDispatcher builds a dispatcher. sms and email senders may be nil
// when the corresponding provider is not configured; those channels
// then fail closed.
func NewDispatcher(smsSender SMSDispatcher, emailSender email.Sender, logs LogStore, m *metrics.BookingMetrics, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		sms:     smsSender,
		email:   emailSender,
		logs:    logs,
		metrics: m,
		logger:  logger,
	}
}

// Dispatch delivers the event on each requested channel.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Result {
	var res Result
	if req.SendSMS {
		res.SMS = d.dispatchSMS(ctx, req)
	}
	if req.SendEmail {
		res.Email = d.dispatchEmail(ctx, req)
	}
	return res
}

func (d *Dispatcher) dispatchSMS(ctx context.Context, req Request) ChannelResult {
	if req.Details.PatientPhone == "" {
		return ChannelResult{}
	}
	body, hasTemplate, err := SMSMessage(req.Type, req.Details)
	if !hasTemplate {
		// SMS-less types (e.g. feedback_request) are a silent no-op:
		// no log row, no error.
		return ChannelResult{}
	}
	if err != nil {
		d.logger.Error("sms template render failed", "type", req.Type, "error", err)
		result := ChannelResult{Attempted: true, Error: err.Error()}
		d.metrics.ObserveNotification(string(ChannelSMS), statusLabel(false), "")
		d.writeLog(ctx, req, ChannelSMS, req.Details.PatientPhone, "", "", result)
		return result
	}

	result := ChannelResult{Attempted: true}
	if d.sms == nil {
		result.Error = "sms sender not configured"
	} else {
		provider, sendErr := d.sms.Send(ctx, req.Details.PatientPhone, body)
		result.Provider = provider
		if sendErr != nil {
			result.Error = sendErr.Error()
			d.logger.Error("sms dispatch failed",
				"type", req.Type,
				"appointment_id", req.Details.AppointmentID,
				"provider", provider,
				"error", sendErr,
			)
		} else {
			result.Success = true
		}
	}

	d.metrics.ObserveNotification(string(ChannelSMS), statusLabel(result.Success), result.Provider)
	d.writeLog(ctx, req, ChannelSMS, req.Details.PatientPhone, "", body, result)
	return result
}

func (d *Dispatcher) dispatchEmail(ctx context.Context, req Request) ChannelResult {
	if req.Details.PatientEmail == "" {
		return ChannelResult{}
	}
	content, hasTemplate := EmailMessage(req.Type, req.Details)
	if !hasTemplate {
		return ChannelResult{}
	}

	result := ChannelResult{Attempted: true}
	if d.email == nil {
		result.Error = "email sender not configured"
	} else {
		result.Provider = d.email.Name()
		sendErr := d.email.Send(ctx, email.Message{
			To:      req.Details.PatientEmail,
			ToName:  req.Details.PatientName,
			Subject: content.Subject,
			Body:    content.Body,
			HTML:    content.HTML,
		})
		if sendErr != nil {
			result.Error = sendErr.Error()
			d.logger.Error("email dispatch failed",
				"type", req.Type,
				"appointment_id", req.Details.AppointmentID,
				"error", sendErr,
			)
		} else {
			result.Success = true
		}
	}

	d.metrics.ObserveNotification(string(ChannelEmail), statusLabel(result.Success), result.Provider)
	d.writeLog(ctx, req, ChannelEmail, req.Details.PatientEmail, content.Subject, content.Body, result)
	return result
}

// writeLog appends the audit row for one attempt. Failures here are
// logged and swallowed; they never reach the caller.
func (d *Dispatcher) writeLog(ctx context.Context, req Request, channel Channel, recipient, subject, message string, result ChannelResult) {
	if d.logs == nil {
		return
	}
	row := &Log{
		AppointmentID: req.Details.AppointmentID,
		Type:          channel,
		Status:        LogStatusFailed,
		Recipient:     recipient,
		Subject:       subject,
		Message:       message,
		ScheduledFor:  req.ScheduledFor,
		ErrorMessage:  result.Error,
	}
	if result.Success {
		now := time.Now().UTC()
		row.Status = LogStatusSent
		row.SentAt = &now
	}
	if err := d.logs.Insert(ctx, row); err != nil {
		d.logger.Error("notification log write failed",
			"appointment_id", req.Details.AppointmentID,
			"channel", channel,
			"error", err,
		)
	}
}

func statusLabel(success bool) string {
	if success {
		return string(LogStatusSent)
	}
	return string(LogStatusFailed)
}
