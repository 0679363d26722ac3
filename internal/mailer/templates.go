package mailer

import "text/template"

// Plain-text bodies; the site has no HTML mail.
var templates = template.Must(template.New("mail").Parse(`
{{define "booking_created_subject"}}Booking confirmed: {{.EventName}}{{end}}
{{define "booking_created_body"}}Hi {{.Username}},

Your booking for {{.EventName}} on {{.EventDate.Format "Mon 02 Jan 2006 15:04"}} has been received.
{{if gt .Cost 0.0}}The cost is {{printf "£%.2f" .Cost}}. Your space is confirmed once payment has been received and reviewed by the studio.
{{else}}There is no charge for this session and your space is confirmed.
{{end}}
See you at the studio!
{{end}}

{{define "booking_rebooked_subject"}}Booking reopened: {{.EventName}}{{end}}
{{define "booking_rebooked_body"}}Hi {{.Username}},

Your previously cancelled booking for {{.EventName}} on {{.EventDate.Format "Mon 02 Jan 2006 15:04"}} has been reopened.
{{if .Paid}}You have already paid for this booking. The studio will review the payment and confirm your space shortly.
{{else if gt .Cost 0.0}}The cost is {{printf "£%.2f" .Cost}}. Your space is confirmed once payment has been received.
{{end}}{{end}}

{{define "booking_created_studio_subject"}}New booking: {{.EventName}} ({{.Username}}){{end}}
{{define "booking_created_studio_body"}}{{.Username}} has booked {{.EventName}} on {{.EventDate.Format "Mon 02 Jan 2006 15:04"}}{{if gt .Cost 0.0}} ({{printf "£%.2f" .Cost}}){{end}}.
{{end}}

{{define "booking_rebooked_studio_subject"}}{{if .Paid}}ACTION REQUIRED: rebooking with payment to review{{else}}Booking reopened: {{.EventName}} ({{.Username}}){{end}}{{end}}
{{define "booking_rebooked_studio_body"}}{{.Username}} has reopened booking {{.BookingID}} for {{.EventName}} on {{.EventDate.Format "Mon 02 Jan 2006 15:04"}}.
{{if .Paid}}
The booking was marked paid before it was cancelled. Please review the payment and confirm the space.
{{end}}{{end}}

{{define "booking_cancelled_subject"}}Booking cancelled: {{.EventName}}{{end}}
{{define "booking_cancelled_body"}}Hi {{.Username}},

Your booking for {{.EventName}} on {{.EventDate.Format "Mon 02 Jan 2006 15:04"}} has been cancelled.
{{if .Paid}}You had paid for this booking; the studio will be in touch about a refund or credit.
{{end}}{{end}}

{{define "booking_cancelled_studio_subject"}}Booking cancelled: {{.EventName}} ({{.Username}}){{end}}
{{define "booking_cancelled_studio_body"}}{{.Username}} has cancelled booking {{.BookingID}} for {{.EventName}} on {{.EventDate.Format "Mon 02 Jan 2006 15:04"}}.
{{if .Paid}}The booking was marked paid.
{{end}}{{end}}

{{define "booking_paid_subject"}}Payment received for {{.EventName}} ({{.Username}}){{end}}
{{define "booking_paid_body"}}A payment has been reported for booking {{.BookingID}} ({{.EventName}}, user {{.Username}}, {{printf "£%.2f" .Cost}}).

Please review and confirm the space.
{{end}}

{{define "block_booked_subject"}}Block booked: {{.BlockName}}{{end}}
{{define "block_booked_body"}}Hi {{.Username}},

You have booked the {{.BlockName}} block ({{len .EventNames}} classes at {{printf "£%.2f" .ItemCost}} each):
{{range .EventNames}}  - {{.}}
{{end}}
Your spaces are confirmed once payment has been received and reviewed by the studio.
{{end}}

{{define "waitinglist_spot_subject"}}A space has opened up: {{.EventName}}{{end}}
{{define "waitinglist_spot_body"}}A space has become available for {{.EventName}} on {{.EventDate.Format "Mon 02 Jan 2006 15:04"}}.

You are receiving this because you are on the waiting list. Spaces go to whoever books first, so book soon if you still want to come.
{{end}}
`))
