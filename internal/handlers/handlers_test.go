package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procure-marine/procure-marine-web/internal/cart"
	"github.com/procure-marine/procure-marine-web/internal/catalog"
	"github.com/procure-marine/procure-marine-web/internal/checkout"
	"github.com/procure-marine/procure-marine-web/internal/email"
	"github.com/procure-marine/procure-marine-web/internal/format"
	"github.com/procure-marine/procure-marine-web/internal/models"
)

type recordingMailer struct {
	calls int
	last  email.Message
	err   error
}

func (m *recordingMailer) Send(ctx context.Context, msg email.Message) (string, error) {
	m.calls++
	m.last = msg
	if m.err != nil {
		return "", m.err
	}
	return "msg-1", nil
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	categories := []models.Category{
		{
			ID:   "deck",
			Name: "Deck Equipment",
			Slug: "deck-equipment",
			Subcategories: []models.Category{
				{ID: "anchoring", Name: "Anchoring", Slug: "anchoring"},
			},
		},
	}
	products := []models.Product{
		{
			ID: "p1", Name: "Hall Anchor", Slug: "hall-anchor", PartNumber: "ANC-100",
			Description: "Galvanized anchor", CategoryIDs: []string{"anchoring"}, Brand: "SeaHold",
			Price:       models.Price{Type: models.PriceFixed, Amount: 289, Currency: "USD"},
			StockStatus: models.InStock,
		},
		{
			ID: "p2", Name: "Mooring Line", Slug: "mooring-line", PartNumber: "MOO-200",
			Description: "Polyester braid", CategoryIDs: []string{"anchoring"}, Brand: "NavaRope",
			Price:       models.Price{Type: models.PriceFixed, Amount: 164.5, Currency: "USD"},
			StockStatus: models.OutOfStock,
		},
	}

	c, err := catalog.New(categories, products)
	require.NoError(t, err)
	return c
}

type testApp struct {
	server  *httptest.Server
	client  *http.Client
	mailer  *recordingMailer
	storage cart.Storage
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppWith(t, cart.NewMemoryStorage())
}

// newTestAppWith wires the handlers the same way cmd/server does, minus the
// CSRF and logging middleware so tests can post forms directly.
func newTestAppWith(t *testing.T, storage cart.Storage) *testApp {
	t.Helper()

	templates := NewTemplateCache()
	templates.AddFunc("price", format.Price)
	templates.AddFunc("lineTotal", format.LineTotal)
	templates.AddFunc("amount", format.Amount)
	require.NoError(t, templates.Load("../../templates"))

	cat := testCatalog(t)
	sessionStore := sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))
	mailer := &recordingMailer{}
	pipeline := checkout.NewPipeline(mailer, "Procure Marine Orders <orders@procuremarine.test>", "sales@procuremarine.test")

	pageHandler := &PageHandler{Catalog: cat, Templates: templates, SessionStore: sessionStore, CartStorage: storage}
	cartHandler := &CartHandler{Catalog: cat, Templates: templates, SessionStore: sessionStore, CartStorage: storage}
	checkoutHandler := &CheckoutHandler{Pipeline: pipeline, Templates: templates, SessionStore: sessionStore, CartStorage: storage}

	mux := http.NewServeMux()
	mux.HandleFunc("/", pageHandler.Home)
	mux.HandleFunc("GET /products", pageHandler.Products)
	mux.HandleFunc("GET /products/{slug}", pageHandler.ProductDetail)
	mux.HandleFunc("GET /cart", cartHandler.ViewCart)
	mux.HandleFunc("POST /cart/add", cartHandler.AddToCart)
	mux.HandleFunc("POST /cart/update", cartHandler.UpdateQuantity)
	mux.HandleFunc("POST /cart/remove", cartHandler.RemoveItem)
	mux.HandleFunc("POST /cart/clear", cartHandler.ClearCart)
	mux.HandleFunc("GET /checkout", checkoutHandler.CheckoutForm)
	mux.HandleFunc("POST /checkout", checkoutHandler.SubmitOrder)
	mux.HandleFunc("GET /order-success", checkoutHandler.OrderSuccess)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testApp{
		server:  server,
		client:  &http.Client{Jar: jar},
		mailer:  mailer,
		storage: storage,
	}
}

func (a *testApp) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.Get(a.server.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (a *testApp) postForm(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.PostForm(a.server.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func validCheckoutForm() url.Values {
	return url.Values{
		"full_name": {"Jordan Mason"},
		"email":     {"jordan@example.com"},
		"phone":     {"+971 50 123 4567"},
		"location":  {"Port of Fujairah"},
	}
}

func TestHomePage(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.get(t, "/")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Procure Marine")
}

func TestHomeUnknownPathIs404(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.get(t, "/no-such-page")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductsSearch(t *testing.T) {
	app := newTestApp(t)

	_, body := app.get(t, "/products?q=anchor")

	assert.Contains(t, body, "Hall Anchor")
	assert.NotContains(t, body, "Mooring Line")
}

func TestProductDetail(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.get(t, "/products/hall-anchor")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "ANC-100")
	assert.Contains(t, body, "$289.00")

	resp, _ = app.get(t, "/products/no-such-product")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAddToCartThenView(t *testing.T) {
	app := newTestApp(t)

	// The add redirects to the cart page, which the client follows with
	// the session cookie it was just handed.
	resp, body := app.postForm(t, "/cart/add", url.Values{
		"product_id": {"p1"},
		"quantity":   {"2"},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/cart", resp.Request.URL.Path)
	assert.Contains(t, body, "Hall Anchor added to cart.")
	assert.Contains(t, body, "Cart (2)")
	assert.Contains(t, body, "$578.00")
}

func TestAddToCartRejectsOutOfStock(t *testing.T) {
	app := newTestApp(t)

	_, body := app.postForm(t, "/cart/add", url.Values{"product_id": {"p2"}})

	assert.Contains(t, body, "currently out of stock")

	_, cartBody := app.get(t, "/cart")
	assert.Contains(t, cartBody, "Your cart is empty.")
}

func TestAddToCartUnknownProduct(t *testing.T) {
	app := newTestApp(t)

	_, body := app.postForm(t, "/cart/add", url.Values{"product_id": {"ghost"}})

	assert.Contains(t, body, "Product not found.")
}

func TestUpdateQuantityToZeroRemovesItem(t *testing.T) {
	app := newTestApp(t)
	app.postForm(t, "/cart/add", url.Values{"product_id": {"p1"}})

	_, body := app.postForm(t, "/cart/update", url.Values{
		"product_id": {"p1"},
		"quantity":   {"0"},
	})

	assert.Contains(t, body, "Your cart is empty.")
}

func TestClearCart(t *testing.T) {
	app := newTestApp(t)
	app.postForm(t, "/cart/add", url.Values{"product_id": {"p1"}, "quantity": {"3"}})

	_, body := app.postForm(t, "/cart/clear", nil)

	assert.Contains(t, body, "Your cart is empty.")
}

func TestCheckoutFormRedirectsWhenCartEmpty(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.get(t, "/checkout")

	assert.Equal(t, "/products", resp.Request.URL.Path)
	assert.Contains(t, body, "Your cart is empty.")
}

func TestCheckoutValidationFailureRendersFieldErrors(t *testing.T) {
	app := newTestApp(t)
	app.postForm(t, "/cart/add", url.Values{"product_id": {"p1"}})

	form := validCheckoutForm()
	form.Set("full_name", "   ")

	resp, body := app.postForm(t, "/checkout", form)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Your full name is required.")
	// The rest of what the customer typed survives the re-render.
	assert.Contains(t, body, "jordan@example.com")
	assert.Equal(t, 0, app.mailer.calls)

	// Cart untouched.
	_, cartBody := app.get(t, "/cart")
	assert.Contains(t, cartBody, "Hall Anchor")
}

func TestCheckoutSuccessClearsCart(t *testing.T) {
	app := newTestApp(t)
	app.postForm(t, "/cart/add", url.Values{"product_id": {"p1"}, "quantity": {"2"}})

	resp, body := app.postForm(t, "/checkout", validCheckoutForm())

	assert.Equal(t, "/order-success", resp.Request.URL.Path)
	ref := resp.Request.URL.Query().Get("ref")
	assert.Regexp(t, `^PM-\d{8}-\d{4}$`, ref)
	assert.Contains(t, body, ref)

	require.Equal(t, 1, app.mailer.calls)
	assert.Equal(t, []string{"sales@procuremarine.test"}, app.mailer.last.To)
	assert.Contains(t, app.mailer.last.HTML, "Hall Anchor")

	_, cartBody := app.get(t, "/cart")
	assert.Contains(t, cartBody, "Your cart is empty.")
}

// failingWriteStorage lets a test make cart persistence start failing
// mid-flow.
type failingWriteStorage struct {
	*cart.MemoryStorage
	failWrites bool
}

func (s *failingWriteStorage) Write(key, value string) error {
	if s.failWrites {
		return assert.AnError
	}
	return s.MemoryStorage.Write(key, value)
}

func TestCheckoutSuccessSurvivesFailedCartClear(t *testing.T) {
	storage := &failingWriteStorage{MemoryStorage: cart.NewMemoryStorage()}
	app := newTestAppWith(t, storage)
	app.postForm(t, "/cart/add", url.Values{"product_id": {"p1"}})

	storage.failWrites = true
	resp, _ := app.postForm(t, "/checkout", validCheckoutForm())

	// The order already went out, so the failed clear must not turn the
	// submission into a failure for the customer.
	assert.Equal(t, "/order-success", resp.Request.URL.Path)
	require.Equal(t, 1, app.mailer.calls)

	storage.failWrites = false
	_, cartBody := app.get(t, "/cart")
	assert.Contains(t, cartBody, "Hall Anchor")
}

func TestCheckoutDispatchFailureKeepsCart(t *testing.T) {
	app := newTestApp(t)
	app.mailer.err = assert.AnError
	app.postForm(t, "/cart/add", url.Values{"product_id": {"p1"}})

	resp, body := app.postForm(t, "/checkout", validCheckoutForm())

	// Back on the checkout form with a flash; nothing was lost.
	assert.Equal(t, "/checkout", resp.Request.URL.Path)
	assert.Contains(t, body, "Failed to send your order request.")

	_, cartBody := app.get(t, "/cart")
	assert.Contains(t, cartBody, "Hall Anchor")
}

func TestOrderSuccessRejectsMalformedReference(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.get(t, "/order-success?ref="+url.QueryEscape("<script>"))

	assert.Equal(t, "/", resp.Request.URL.Path)
}

func TestCartsAreIsolatedPerVisitor(t *testing.T) {
	app := newTestApp(t)
	app.postForm(t, "/cart/add", url.Values{"product_id": {"p1"}})

	// A second visitor with their own cookie jar sees an empty cart.
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	other := &http.Client{Jar: jar}

	resp, err := other.Get(app.server.URL + "/cart")
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Contains(t, body, "Your cart is empty.")
	assert.False(t, strings.Contains(body, "Hall Anchor"))
}
