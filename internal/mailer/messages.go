package mailer

import (
	"fmt"
	"strings"

	"github.com/arzan03/storefront/internal/models"
)

func OrderConfirmation(o models.Order) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nWe received your order %s.\n\n", o.Customer.Name, o.ID.Hex())
	for _, it := range o.Items {
		fmt.Fprintf(&b, "  %d x %s  $%.2f\n", it.Quantity, it.Name, it.Price*float64(it.Quantity))
	}
	fmt.Fprintf(&b, "\nTotal: $%.2f (%d items)\n", o.TotalAmount, o.TotalItems)
	if o.PaymentMethod == models.PaymentMethodTransfer {
		b.WriteString("\nOnce you have made the transfer, upload the receipt from your order page.\n")
	}
	return Message{
		To:      o.Customer.Email,
		Subject: fmt.Sprintf("Order %s received", o.ID.Hex()),
		Text:    b.String(),
	}
}

func ProofReceived(o models.Order, adminEmail string) Message {
	return Message{
		To:      adminEmail,
		Subject: fmt.Sprintf("Payment proof uploaded for order %s", o.ID.Hex()),
		Text: fmt.Sprintf("%s <%s> uploaded a payment proof for order %s ($%.2f).\n\n%s\n",
			o.Customer.Name, o.Customer.Email, o.ID.Hex(), o.TotalAmount, o.PaymentProofURL),
	}
}

func PaymentApproved(o models.Order) Message {
	return Message{
		To:      o.Customer.Email,
		Subject: fmt.Sprintf("Payment approved for order %s", o.ID.Hex()),
		Text:    fmt.Sprintf("Hi %s,\n\nYour payment for order %s was approved. We'll let you know when it ships.\n", o.Customer.Name, o.ID.Hex()),
	}
}

func PaymentRejected(o models.Order) Message {
	return Message{
		To:      o.Customer.Email,
		Subject: fmt.Sprintf("Payment proof rejected for order %s", o.ID.Hex()),
		Text: fmt.Sprintf("Hi %s,\n\nWe couldn't confirm the payment for order %s.\nReason: %s\n\nYou can upload a new proof from your order page.\n",
			o.Customer.Name, o.ID.Hex(), o.PaymentRejectionReason),
	}
}

func PasswordReset(u models.User, link string) Message {
	return Message{
		To:      u.Email,
		Subject: "Reset your password",
		Text:    fmt.Sprintf("Hi %s,\n\nUse this link within the next hour to choose a new password:\n\n%s\n\nIf you didn't ask for this, ignore this email.\n", u.Name, link),
	}
}
