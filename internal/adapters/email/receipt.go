package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
)

// CategoryDonationReceipt tags receipt messages at the provider.
const CategoryDonationReceipt = "donation_receipt"

// Receipt is the data shown in a donation receipt.
type Receipt struct {
	To           string
	Name         string
	PurposeLabel string
	Behalf       string
	Amount       float64
	TranID       string
}

var receiptTmpl = template.Must(template.New("receipt").Parse(`<!doctype html>
<html><body style="font-family:sans-serif">
<p>Dear {{if .Name}}{{.Name}}{{else}}donor{{end}},</p>
<p>Thank you for your donation of <strong>৳{{.Amount}}</strong>{{if .PurposeLabel}} to <strong>{{.PurposeLabel}}</strong>{{end}}.</p>
{{if .Behalf}}<p>This donation was made on behalf of {{.Behalf}}.</p>{{end}}
<p>Transaction reference: <code>{{.TranID}}</code></p>
<p>May it be accepted.</p>
</body></html>`))

// RenderReceipt builds the receipt request.
// PRE: r.To is an email address
func RenderReceipt(r Receipt) (SendRequest, error) {
	var buf bytes.Buffer
	data := struct {
		Receipt
		Amount string
	}{Receipt: r, Amount: strconv.FormatFloat(r.Amount, 'f', -1, 64)}
	if err := receiptTmpl.Execute(&buf, data); err != nil {
		return SendRequest{}, fmt.Errorf("render receipt: %w", err)
	}
	subject := "Your donation receipt"
	if r.PurposeLabel != "" {
		subject += " - " + r.PurposeLabel
	}
	return SendRequest{
		To:       []string{r.To},
		Subject:  subject,
		HTML:     buf.String(),
		Category: CategoryDonationReceipt,
	}, nil
}
