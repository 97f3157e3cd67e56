// Package remote is the HTTP client for the storefront backend. The
// session rides on a cookie, so the client keeps a cookie jar and the
// engines never see a token. Money crosses the wire as plain JSON
// numbers and is converted to decimals at this boundary.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/murkotick/shophub-core/internal/app/auth"
	"github.com/murkotick/shophub-core/internal/app/catalog"
	"github.com/murkotick/shophub-core/internal/app/orders"
)

const defaultTimeout = 30 * time.Second

// Client talks to the backend REST API. It implements the remote
// collaborator interfaces of the catalog, auth and orders engines.
type Client struct {
	base string
	http *http.Client
	log  *zap.Logger
}

// NewClient creates a client for the API at baseURL (e.g.
// "http://localhost:5000/api"). The trailing slash is optional.
func NewClient(baseURL string, log *zap.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: defaultTimeout, Jar: jar},
		log:  log,
	}, nil
}

// do issues one request. A non-2xx response becomes an *APIError with
// the backend's message; a 2xx body is decoded into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
			apiErr.Message = envelope.Message
			if apiErr.Message == "" {
				apiErr.Message = envelope.Error
			}
		}
		c.log.Debug("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return apiErr
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// --- catalog ---

// GetProducts fetches the full product set.
func (c *Client) GetProducts(ctx context.Context) ([]catalog.Product, error) {
	var envelope struct {
		Products []catalog.Product `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, "/products", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Products, nil
}

// GetProductBySlug fetches one product by its URL slug.
func (c *Client) GetProductBySlug(ctx context.Context, slug string) (catalog.Product, error) {
	var envelope struct {
		Product catalog.Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodGet, "/products/slug/"+url.PathEscape(slug), nil, &envelope); err != nil {
		return catalog.Product{}, err
	}
	return envelope.Product, nil
}

// SearchProducts runs a server-side product search.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]catalog.Product, error) {
	var envelope struct {
		Products []catalog.Product `json:"products"`
	}
	path := "/products/search?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Products, nil
}

// --- auth ---

type userEnvelope struct {
	User auth.User `json:"user"`
}

// LoginLocal signs in with email and password. The session cookie is
// captured by the jar.
func (c *Client) LoginLocal(ctx context.Context, email, password string) (auth.User, error) {
	body := map[string]string{"email": email, "password": password}
	var envelope userEnvelope
	if err := c.do(ctx, http.MethodPost, "/auth/login/local", body, &envelope); err != nil {
		return auth.User{}, err
	}
	return envelope.User, nil
}

// SendCode requests a one-time code for the contact.
func (c *Client) SendCode(ctx context.Context, method auth.Method, contact string) error {
	body := map[string]string{string(method): contact}
	return c.do(ctx, http.MethodPost, "/auth/login/"+string(method), body, nil)
}

// VerifyCode exchanges the one-time code for a session.
func (c *Client) VerifyCode(ctx context.Context, method auth.Method, contact, code string) (auth.User, error) {
	body := map[string]string{string(method): contact, "otp": code}
	var envelope userEnvelope
	if err := c.do(ctx, http.MethodPost, "/auth/login/"+string(method)+"/verifyOtp", body, &envelope); err != nil {
		return auth.User{}, err
	}
	return envelope.User, nil
}

// GetSession probes for an existing cookie session.
func (c *Client) GetSession(ctx context.Context) (auth.User, error) {
	var envelope userEnvelope
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &envelope); err != nil {
		return auth.User{}, err
	}
	return envelope.User, nil
}

// Logout invalidates the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/auth/logout", nil, nil)
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, reg auth.Registration) (auth.User, error) {
	var envelope userEnvelope
	if err := c.do(ctx, http.MethodPost, "/auth/register", reg, &envelope); err != nil {
		return auth.User{}, err
	}
	return envelope.User, nil
}

// UpdateProfile mutates the signed-in user's profile.
func (c *Client) UpdateProfile(ctx context.Context, update auth.ProfileUpdate) (auth.User, error) {
	var envelope userEnvelope
	if err := c.do(ctx, http.MethodPut, "/auth/profile", update, &envelope); err != nil {
		return auth.User{}, err
	}
	return envelope.User, nil
}

// UpdatePassword changes the account password.
func (c *Client) UpdatePassword(ctx context.Context, current, next string) error {
	body := map[string]string{"currentPassword": current, "newPassword": next}
	return c.do(ctx, http.MethodPut, "/auth/changePassword", body, nil)
}

// OAuthURL returns the provider redirect entry point. The host hands
// it to the browser; the client never follows it.
func (c *Client) OAuthURL(provider auth.OAuthProvider) string {
	return c.base + "/auth/" + string(provider)
}

// --- orders ---

// orderItemPayload mirrors orders.Item with money as JSON numbers.
type orderItemPayload struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Slug      string  `json:"slug"`
	Image     string  `json:"image"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// orderPayload is the placement request body.
type orderPayload struct {
	Items           []orderItemPayload `json:"items"`
	ShippingAddress auth.Address       `json:"shippingAddress"`
	ShippingMethod  string             `json:"shippingMethod"`
	PaymentMethod   string             `json:"paymentMethod"`
	Subtotal        float64            `json:"subtotal"`
	Shipping        float64            `json:"shipping"`
	Tax             float64            `json:"tax"`
	Total           float64            `json:"total"`
}

func draftPayload(draft orders.Draft) orderPayload {
	items := make([]orderItemPayload, 0, len(draft.Items))
	for _, it := range draft.Items {
		items = append(items, orderItemPayload{
			ProductID: it.ProductID,
			Name:      it.Name,
			Slug:      it.Slug,
			Image:     it.Image,
			Price:     it.Price.InexactFloat64(),
			Quantity:  it.Quantity,
		})
	}
	return orderPayload{
		Items:           items,
		ShippingAddress: draft.ShippingAddress,
		ShippingMethod:  draft.ShippingMethod,
		PaymentMethod:   draft.PaymentMethod,
		Subtotal:        draft.Subtotal.InexactFloat64(),
		Shipping:        draft.Shipping.InexactFloat64(),
		Tax:             draft.Tax.InexactFloat64(),
		Total:           draft.Total.InexactFloat64(),
	}
}

// orderWire mirrors orders.Order on the wire.
type orderWire struct {
	ID              string           `json:"id"`
	Number          string           `json:"orderNumber"`
	Status          string           `json:"status"`
	Items           []orderItemWire  `json:"items"`
	ShippingAddress auth.Address     `json:"shippingAddress"`
	ShippingMethod  string           `json:"shippingMethod"`
	PaymentMethod   string           `json:"paymentMethod"`
	Subtotal        float64          `json:"subtotal"`
	Shipping        float64          `json:"shipping"`
	Tax             float64          `json:"tax"`
	Total           float64          `json:"total"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

type orderItemWire struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Slug      string  `json:"slug"`
	Image     string  `json:"image"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

func (w orderWire) toOrder() orders.Order {
	items := make([]orders.Item, 0, len(w.Items))
	for _, it := range w.Items {
		items = append(items, orders.Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			Slug:      it.Slug,
			Image:     it.Image,
			Price:     decimal.NewFromFloat(it.Price),
			Quantity:  it.Quantity,
		})
	}
	return orders.Order{
		ID:              w.ID,
		Number:          w.Number,
		Status:          orders.Status(w.Status),
		Items:           items,
		ShippingAddress: w.ShippingAddress,
		ShippingMethod:  w.ShippingMethod,
		PaymentMethod:   w.PaymentMethod,
		Subtotal:        decimal.NewFromFloat(w.Subtotal),
		Shipping:        decimal.NewFromFloat(w.Shipping),
		Tax:             decimal.NewFromFloat(w.Tax),
		Total:           decimal.NewFromFloat(w.Total),
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       w.UpdatedAt,
	}
}

// CreateOrder places an order.
func (c *Client) CreateOrder(ctx context.Context, draft orders.Draft) (orders.Order, error) {
	var envelope struct {
		Order orderWire `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders", draftPayload(draft), &envelope); err != nil {
		return orders.Order{}, err
	}
	return envelope.Order.toOrder(), nil
}

// GetOrder fetches one order.
func (c *Client) GetOrder(ctx context.Context, id string) (orders.Order, error) {
	var envelope struct {
		Order orderWire `json:"order"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, &envelope); err != nil {
		return orders.Order{}, err
	}
	return envelope.Order.toOrder(), nil
}

// ListOrders fetches the signed-in user's order history.
func (c *Client) ListOrders(ctx context.Context) ([]orders.Order, error) {
	var envelope struct {
		Orders []orderWire `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &envelope); err != nil {
		return nil, err
	}
	out := make([]orders.Order, 0, len(envelope.Orders))
	for _, w := range envelope.Orders {
		out = append(out, w.toOrder())
	}
	return out, nil
}

// CancelOrder cancels an order and returns its updated state.
func (c *Client) CancelOrder(ctx context.Context, id string) (orders.Order, error) {
	var envelope struct {
		Order orderWire `json:"order"`
	}
	if err := c.do(ctx, http.MethodPut, "/orders/"+url.PathEscape(id)+"/cancel", nil, &envelope); err != nil {
		return orders.Order{}, err
	}
	return envelope.Order.toOrder(), nil
}
