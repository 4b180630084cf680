package checkout

import (
	"regexp"
	"strings"

	"github.com/procure-marine/procure-marine-web/internal/models"
)

// Basic email shape check
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// Validate checks the required checkout fields after trimming. It returns
// one message per failing field, keyed by form field name; an empty map
// means the input is acceptable. Company name and notes are optional.
func Validate(contact models.ContactInfo, delivery models.DeliveryInfo) map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(contact.FullName) == "" {
		errors["fullName"] = "Your full name is required."
	}
	email := strings.TrimSpace(contact.Email)
	if email == "" {
		errors["email"] = "Email address is required."
	} else if !isValidEmail(email) {
		errors["email"] = "Please enter a valid email address."
	}
	if strings.TrimSpace(contact.Phone) == "" {
		errors["phone"] = "Phone number is required."
	}
	if strings.TrimSpace(delivery.Location) == "" {
		errors["location"] = "Delivery location or port is required."
	}

	return errors
}
