package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/sessions"

	"github.com/procure-marine/procure-marine-web/internal/cart"
)

const (
	sessionName = "pm-session"
	cartIDKey   = "cartID"
)

func newCartID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "cart-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(b)
}

// cartStoreFor binds a cart store to the visitor's cart key, minting a key
// into the session on first contact. The session cookie is the only place
// the key lives; the cart contents themselves stay server-side.
func cartStoreFor(storage cart.Storage, sessionStore *sessions.CookieStore, w http.ResponseWriter, r *http.Request) (*cart.Store, *sessions.Session) {
	session, _ := sessionStore.Get(r, sessionName)
	id, ok := session.Values[cartIDKey].(string)
	if !ok || id == "" {
		id = newCartID()
		session.Values[cartIDKey] = id
		session.Save(r, w)
	}
	return cart.NewStore(storage, id), session
}
