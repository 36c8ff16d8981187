// Package payment builds UPI deep links that hand a purchase off to an
// external payment app. Nothing here confirms that a payment happened.
package payment

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// Scheme is the URI prefix UPI apps register for.
	Scheme = "upi://pay"
	// DefaultPayeeName is shown by the payment app when no name is configured.
	DefaultPayeeName = "EduMarket"
	// Currency is the only currency UPI accepts.
	Currency = "INR"
)

// Request describes one payment handoff.
type Request struct {
	PayeeHandle string // seller UPI ID, passed through as-is
	PayeeName   string
	Amount      int64 // whole rupees
	Title       string
	Memo        string // defaults to "Payment for <Title>"
}

// BuildUPILink returns upi://pay?pa=..&pn=..&am=..&tn=..&cu=INR with
// form-encoded values in that order.
func BuildUPILink(r Request) string {
	name := r.PayeeName
	if name == "" {
		name = DefaultPayeeName
	}
	memo := r.Memo
	if memo == "" {
		memo = "Payment for " + r.Title
	}

	params := [][2]string{
		{"pa", r.PayeeHandle},
		{"pn", name},
		{"am", strconv.FormatInt(r.Amount, 10)},
		{"tn", memo},
		{"cu", Currency},
	}

	var b strings.Builder
	b.WriteString(Scheme)
	for i, p := range params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p[0])
		b.WriteByte('=')
		b.WriteString(formEscape(p[1]))
	}
	return b.String()
}

// formEscape applies application/x-www-form-urlencoded escaping, which differs
// from url.QueryEscape only in escaping '~' and leaving '*' alone. '%' is always
// escaped first, so "%2A" in the output can only come from '*'.
func formEscape(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "~", "%7E")
	return strings.ReplaceAll(escaped, "%2A", "*")
}

// FormatPrice renders an amount in rupees with Indian digit grouping, e.g. ₹1,25,000.
func FormatPrice(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	if len(digits) <= 3 {
		return sign + "₹" + digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	groups = append([]string{head}, groups...)
	return sign + "₹" + strings.Join(groups, ",") + "," + tail
}
