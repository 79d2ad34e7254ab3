package notifications

import (
	"fmt"
	"strings"
)

// smsTemplates maps each notification type to its SMS text. Types absent
// here (feedback_request) have no SMS channel.
var smsTemplates = map[Type]string{
	TypeBookingConfirmation: "Hi {{.PatientName}}! Your appointment {{.ReferenceNumber}} at {{.HospitalName}} ({{.DepartmentName}}) is booked for {{.Date}} at {{.Time}}. Keep this reference for your visit.",
	TypeReminder48h:         "Reminder: you have an appointment at {{.HospitalName}} ({{.DepartmentName}}) on {{.Date}} at {{.Time}}. Ref: {{.ReferenceNumber}}.",
	TypeReminder24h:         "Your appointment at {{.HospitalName}} is tomorrow, {{.Date}} at {{.Time}}. Ref: {{.ReferenceNumber}}. Reply to this message or call the hospital if you cannot attend.",
	TypeReminder2h:          "Your appointment at {{.HospitalName}} is today at {{.Time}}. Please arrive 15 minutes early with your reference {{.ReferenceNumber}}.",
	TypeCancellation:        "Hi {{.PatientName}}, your appointment {{.ReferenceNumber}} at {{.HospitalName}} for {{.Date}} at {{.Time}} has been cancelled.{{if .Reason}} Reason: {{.Reason}}.{{end}} Contact the hospital to rebook.",
	TypeReschedule:          "Hi {{.PatientName}}, {{.HospitalName}} has proposed a new time for appointment {{.ReferenceNumber}}: {{.SuggestedDate}} at {{.SuggestedTime}}. Sign in to accept or decline the suggestion.",
}

// SMSMessage renders the SMS body for a type. ok is false when the type
// has no SMS template.
func SMSMessage(t Type, details AppointmentDetails) (string, bool, error) {
	tmpl, ok := smsTemplates[t]
	if !ok {
		return "", false, nil
	}
	body, err := renderTemplate("sms_"+string(t), tmpl, details)
	if err != nil {
		return "", true, err
	}
	return body, true, nil
}

// EmailContent is a rendered email for one notification type.
type EmailContent struct {
	Subject string
	Body    string // plain text
	HTML    string
}

// EmailMessage renders the email content for a type. ok is false when
// the type is SMS-only.
func EmailMessage(t Type, d AppointmentDetails) (EmailContent, bool) {
	switch t {
	case TypeBookingConfirmation:
		return EmailContent{
			Subject: fmt.Sprintf("Appointment Booked - %s", d.ReferenceNumber),
			Body:    bookingBody(d),
			HTML:    bookingHTML(d),
		}, true
	case TypeReminder24h:
		return EmailContent{
			Subject: fmt.Sprintf("Appointment Reminder - %s", d.ReferenceNumber),
			Body: fmt.Sprintf(`Hi %s,

This is a reminder that you have an appointment tomorrow.

Hospital: %s
Department: %s
Date: %s
Time: %s
Reference: %s

If you cannot attend, please cancel or contact the hospital so the slot can be reused.

— %s`, d.PatientName, d.HospitalName, d.DepartmentName, d.Date, d.Time, d.ReferenceNumber, d.HospitalName),
			HTML: detailTableHTML("Appointment Reminder", fmt.Sprintf("Hi <strong>%s</strong>, your appointment is tomorrow.", d.PatientName), d, ""),
		}, true
	case TypeCancellation:
		reasonLine := ""
		if d.Reason != "" {
			reasonLine = fmt.Sprintf("\nReason: %s", d.Reason)
		}
		return EmailContent{
			Subject: fmt.Sprintf("Appointment Cancelled - %s", d.ReferenceNumber),
			Body: fmt.Sprintf(`Hi %s,

Your appointment at %s (%s) scheduled for %s at %s has been cancelled.%s

You can book a new appointment at any time.

— %s`, d.PatientName, d.HospitalName, d.DepartmentName, d.Date, d.Time, reasonLine, d.HospitalName),
			HTML: detailTableHTML("Appointment Cancelled", fmt.Sprintf("Hi <strong>%s</strong>, this appointment has been cancelled.", d.PatientName), d, d.Reason),
		}, true
	case TypeReschedule:
		return EmailContent{
			Subject: fmt.Sprintf("New Time Proposed - %s", d.ReferenceNumber),
			Body: fmt.Sprintf(`Hi %s,

%s has proposed a new time for your appointment %s.

Proposed date: %s
Proposed time: %s

Sign in to your patient portal to accept or decline the suggestion.

— %s`, d.PatientName, d.HospitalName, d.ReferenceNumber, d.SuggestedDate, d.SuggestedTime, d.HospitalName),
			HTML: fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2 style="color: #0e7490;">New Time Proposed</h2>
<p>Hi <strong>%s</strong>, %s has proposed a new time for appointment <strong>%s</strong>:</p>
<p style="background: #ecfeff; padding: 12px; border-radius: 8px; border-left: 4px solid #0e7490;">
  %s at %s
</p>
<p>Sign in to your patient portal to accept or decline.</p>
<p style="color: #6b7280; font-size: 12px; margin-top: 20px;">— %s</p>
</div>`, d.PatientName, d.HospitalName, d.ReferenceNumber, d.SuggestedDate, d.SuggestedTime, d.HospitalName),
		}, true
	case TypeFeedbackRequest:
		return EmailContent{
			Subject: fmt.Sprintf("How was your visit to %s?", d.HospitalName),
			Body: fmt.Sprintf(`Hi %s,

Thank you for visiting %s (%s). We would love to hear about your experience for appointment %s.

Your feedback helps the hospital improve its service.

— %s`, d.PatientName, d.HospitalName, d.DepartmentName, d.ReferenceNumber, d.HospitalName),
			HTML: fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2 style="color: #0e7490;">How was your visit?</h2>
<p>Hi <strong>%s</strong>, thank you for visiting %s (%s).</p>
<p>We would love to hear about your experience for appointment <strong>%s</strong>.</p>
<p style="color: #6b7280; font-size: 12px; margin-top: 20px;">— %s</p>
</div>`, d.PatientName, d.HospitalName, d.DepartmentName, d.ReferenceNumber, d.HospitalName),
		}, true
	}
	return EmailContent{}, false
}

func bookingBody(d AppointmentDetails) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nYour appointment has been booked.\n\n", d.PatientName)
	fmt.Fprintf(&b, "Hospital: %s\n", d.HospitalName)
	if d.HospitalAddress != "" {
		fmt.Fprintf(&b, "Address: %s\n", d.HospitalAddress)
	}
	fmt.Fprintf(&b, "Department: %s\nDate: %s\nTime: %s\nReference: %s\n", d.DepartmentName, d.Date, d.Time, d.ReferenceNumber)
	fmt.Fprintf(&b, "\nPlease keep your reference number; you will need it at the front desk.\n\n— %s", d.HospitalName)
	return b.String()
}

func bookingHTML(d AppointmentDetails) string {
	return detailTableHTML("Appointment Booked", fmt.Sprintf("Hi <strong>%s</strong>, your appointment has been booked.", d.PatientName), d, "")
}

func detailTableHTML(title, lede string, d AppointmentDetails, reason string) string {
	reasonRow := ""
	if reason != "" {
		reasonRow = fmt.Sprintf(`<tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Reason:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>`, reason)
	}
	addressRow := ""
	if d.HospitalAddress != "" {
		addressRow = fmt.Sprintf(`<tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Address:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>`, d.HospitalAddress)
	}
	return fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2 style="color: #0e7490;">%s</h2>
<p>%s</p>
<table style="border-collapse: collapse; margin: 20px 0;">
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Hospital:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
  %s<tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Department:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Date:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Time:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Reference:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
  %s
</table>
<p style="color: #6b7280; font-size: 12px; margin-top: 20px;">— %s</p>
</div>`, title, lede, d.HospitalName, addressRow, d.DepartmentName, d.Date, d.Time, d.ReferenceNumber, reasonRow, d.HospitalName)
}
