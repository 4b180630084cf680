package handlers

import (
	"log/slog"
	"net/http"
	"regexp"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/procure-marine/procure-marine-web/internal/cart"
	"github.com/procure-marine/procure-marine-web/internal/checkout"
	"github.com/procure-marine/procure-marine-web/internal/models"
)

// CheckoutHandler drives the order submission flow. The pipeline only
// composes and sends; clearing the cart after a confirmed success happens
// here, exactly once per successful submission.
type CheckoutHandler struct {
	Pipeline     *checkout.Pipeline
	Templates    *TemplateCache
	SessionStore *sessions.CookieStore
	CartStorage  cart.Storage
}

func (h *CheckoutHandler) CheckoutForm(w http.ResponseWriter, r *http.Request) {
	store, session := cartStoreFor(h.CartStorage, h.SessionStore, w, r)

	currentCart := store.Load()
	if currentCart.Empty() {
		session.AddFlash(FlashMessage{Type: "error", Message: "Your cart is empty. Add some products before checking out."})
		session.Save(r, w)
		http.Redirect(w, r, "/products", http.StatusSeeOther)
		return
	}

	h.renderForm(w, r, session, currentCart, nil, nil)
}

func (h *CheckoutHandler) renderForm(w http.ResponseWriter, r *http.Request, session *sessions.Session, currentCart models.Cart, fieldErrors map[string]string, form map[string]string) {
	tmpl := h.Templates.Get("checkout.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Cart":        currentCart,
		"CsrfField":   csrf.TemplateField(r),
		"FieldErrors": fieldErrors,
		"Form":        form,
		"Flashes":     GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

// SubmitOrder handles POST /checkout. Validation failures re-render the
// form with inline errors and the submitted values; dispatch failures keep
// the cart so nothing the customer entered is lost.
func (h *CheckoutHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	store, session := cartStoreFor(h.CartStorage, h.SessionStore, w, r)

	if err := r.ParseForm(); err != nil {
		session.AddFlash(FlashMessage{Type: "error", Message: "Invalid form data."})
		session.Save(r, w)
		http.Redirect(w, r, "/checkout", http.StatusSeeOther)
		return
	}

	currentCart := store.Load()
	if currentCart.Empty() {
		session.AddFlash(FlashMessage{Type: "error", Message: "Your cart is empty. Add some products before checking out."})
		session.Save(r, w)
		http.Redirect(w, r, "/products", http.StatusSeeOther)
		return
	}

	contact := models.ContactInfo{
		FullName:    r.FormValue("full_name"),
		Email:       r.FormValue("email"),
		Phone:       r.FormValue("phone"),
		CompanyName: r.FormValue("company_name"),
	}
	delivery := models.DeliveryInfo{
		Location: r.FormValue("location"),
		Notes:    r.FormValue("delivery_notes"),
	}
	additionalNotes := r.FormValue("additional_notes")

	result := h.Pipeline.Submit(r.Context(), store.Key(), currentCart, contact, delivery, additionalNotes)

	switch {
	case result.Success:
		// Confirmed dispatch: this is the one place the cart gets cleared.
		// The order is already out, so a failed clear is logged, not shown.
		if _, err := store.Clear(); err != nil {
			slog.Error("Failed to clear cart after order submission", "reference", result.OrderReference, "error", err)
		}
		http.Redirect(w, r, "/order-success?ref="+result.OrderReference, http.StatusSeeOther)

	case len(result.FieldErrors) > 0:
		form := map[string]string{
			"full_name":        contact.FullName,
			"email":            contact.Email,
			"phone":            contact.Phone,
			"company_name":     contact.CompanyName,
			"location":         delivery.Location,
			"delivery_notes":   delivery.Notes,
			"additional_notes": additionalNotes,
		}
		h.renderForm(w, r, session, currentCart, result.FieldErrors, form)

	default:
		session.AddFlash(FlashMessage{Type: "error", Message: result.Message})
		session.Save(r, w)
		http.Redirect(w, r, "/checkout", http.StatusSeeOther)
	}
}

var orderRefPattern = regexp.MustCompile(`^PM-\d{8}-\d{4}$`)

// OrderSuccess shows the confirmation page with the order reference.
func (h *CheckoutHandler) OrderSuccess(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	if !orderRefPattern.MatchString(ref) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	tmpl := h.Templates.Get("order_success.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	tmpl.Execute(w, map[string]interface{}{
		"OrderReference": ref,
	})
}
