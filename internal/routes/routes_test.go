package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"flipcart_back_end/internal/database"
	"flipcart_back_end/internal/lock"
	"flipcart_back_end/internal/models"
	"flipcart_back_end/internal/services"
	"flipcart_back_end/internal/utils"
)

var secret = []byte("routes-secret")

func init() { gin.SetMode(gin.TestMode) }

func newServer(t *testing.T, client *redis.Client, cartLimit int) *httptest.Server {
	t.Helper()
	store := database.NewMemoryStore()
	locks := lock.NewLocal()

	r := NewRouter(Deps{
		Logger:        slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Carts:         services.NewCartService(store, locks, nil, time.Second),
		Products:      services.NewProductService(store, locks, nil, nil, time.Second),
		Redis:         client,
		JWTSecret:     secret,
		CartRateLimit: cartLimit,
		APIRateLimit:  1000,
		CORSOrigins:   []string{"*"},
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	s, err := utils.GenerateJWT(userID, role, secret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   int             `json:"count"`
	Data    json.RawMessage `json:"data"`
}

func call(t *testing.T, srv *httptest.Server, method, path, bearer string, body any) (int, response) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, srv.URL+path, rdr)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	var out response
	raw, _ := io.ReadAll(res.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return res.StatusCode, out
}

func TestCartEndToEnd_MergesQuantities(t *testing.T) {
	srv := newServer(t, nil, 0)

	call(t, srv, http.MethodPost, "/cart/add", "", map[string]any{"productId": "p1", "quantity": 2, "user": "u1"})
	code, _ := call(t, srv, http.MethodPost, "/cart/add", "", map[string]any{"productId": "p1", "quantity": 3, "user": "u1"})
	if code != http.StatusOK {
		t.Fatalf("add: %d", code)
	}

	code, res := call(t, srv, http.MethodGet, "/cart/u1", "", nil)
	var cart models.Cart
	if err := json.Unmarshal(res.Data, &cart); err != nil {
		t.Fatal(err)
	}
	if code != http.StatusOK || len(cart.Items) != 1 || cart.Items[0].Quantity != 5 {
		t.Fatalf("cart = %d %+v", code, cart)
	}
}

func TestCartEndToEnd_ConcurrentAdds(t *testing.T) {
	srv := newServer(t, nil, 0)

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			b, _ := json.Marshal(map[string]any{"productId": "p1", "quantity": 1, "user": "u1"})
			res, err := srv.Client().Post(srv.URL+"/cart/add", "application/json", bytes.NewReader(b))
			if err != nil {
				return err
			}
			defer res.Body.Close()
			if res.StatusCode != http.StatusOK {
				return fmt.Errorf("status %d", res.StatusCode)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	_, res := call(t, srv, http.MethodGet, "/carts", "", nil)
	var carts []models.Cart
	if err := json.Unmarshal(res.Data, &carts); err != nil {
		t.Fatal(err)
	}
	if res.Count != 1 || len(carts) != 1 || carts[0].Items[0].Quantity != 10 {
		t.Fatalf("carts = %+v", carts)
	}
}

func TestProductEndToEnd_Reviews(t *testing.T) {
	srv := newServer(t, nil, 0)
	admin := token(t, "admin-1", "admin")
	customer := token(t, "u1", "customer")

	fields := map[string]any{
		"name": "Phone", "description": "A phone", "price": 199.99,
		"category": "electronics", "imageUrl": "http://img/phone.png",
	}

	code, _ := call(t, srv, http.MethodPost, "/products", "", fields)
	if code != http.StatusUnauthorized {
		t.Fatalf("create without token: %d", code)
	}
	code, _ = call(t, srv, http.MethodPost, "/products", customer, fields)
	if code != http.StatusForbidden {
		t.Fatalf("create as customer: %d", code)
	}

	code, res := call(t, srv, http.MethodPost, "/products", admin, fields)
	if code != http.StatusCreated {
		t.Fatalf("create: %d %+v", code, res)
	}
	var p models.Product
	if err := json.Unmarshal(res.Data, &p); err != nil {
		t.Fatal(err)
	}
	reviewPath := "/products/" + p.ID.Hex() + "/review"

	if code, _ := call(t, srv, http.MethodPost, reviewPath, "", map[string]any{"rating": 5}); code != http.StatusUnauthorized {
		t.Fatalf("review without token: %d", code)
	}
	call(t, srv, http.MethodPost, reviewPath, customer, map[string]any{"rating": 5, "comment": "great"})
	code, res = call(t, srv, http.MethodPost, reviewPath, token(t, "u2", ""), map[string]any{"rating": 3})
	if code != http.StatusCreated {
		t.Fatalf("review: %d %+v", code, res)
	}

	code, res = call(t, srv, http.MethodGet, "/products/"+p.ID.Hex(), "", nil)
	if err := json.Unmarshal(res.Data, &p); err != nil {
		t.Fatal(err)
	}
	if code != http.StatusOK || len(p.Reviews) != 2 || p.Rating == nil || *p.Rating != 4.0 {
		t.Fatalf("product = %d %+v", code, p)
	}

	if code, _ := call(t, srv, http.MethodDelete, "/products/"+p.ID.Hex(), admin, nil); code != http.StatusOK {
		t.Fatalf("delete: %d", code)
	}
}

func TestAdminCartDelete_RequiresAdmin(t *testing.T) {
	srv := newServer(t, nil, 0)
	_, res := call(t, srv, http.MethodPost, "/cart/add", "", map[string]any{"productId": "p1", "user": "u1"})
	var cart models.Cart
	_ = json.Unmarshal(res.Data, &cart)

	path := "/carts/" + cart.ID.Hex()
	if code, _ := call(t, srv, http.MethodDelete, path, token(t, "u1", ""), nil); code != http.StatusForbidden {
		t.Fatalf("customer delete: %d", code)
	}
	if code, _ := call(t, srv, http.MethodDelete, path, token(t, "a", "admin"), nil); code != http.StatusOK {
		t.Fatalf("admin delete: %d", code)
	}
	if code, _ := call(t, srv, http.MethodGet, "/cart/u1", "", nil); code != http.StatusNotFound {
		t.Fatalf("cart still present: %d", code)
	}
}

func TestCartAdd_RateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	srv := newServer(t, client, 2)

	body := map[string]any{"productId": "p1", "user": "u1"}
	for i := 0; i < 2; i++ {
		if code, _ := call(t, srv, http.MethodPost, "/cart/add", "", body); code != http.StatusOK {
			t.Fatalf("add %d: %d", i, code)
		}
	}
	code, res := call(t, srv, http.MethodPost, "/cart/add", "", body)
	if code != http.StatusTooManyRequests || res.Success {
		t.Fatalf("third add: %d %+v", code, res)
	}
	if code, _ := call(t, srv, http.MethodGet, "/cart/u1", "", nil); code != http.StatusOK {
		t.Fatalf("reads are not limited by the cart limit: %d", code)
	}
}

func TestNoRouteAndCORS(t *testing.T) {
	srv := newServer(t, nil, 0)

	code, res := call(t, srv, http.MethodGet, "/nope", "", nil)
	if code != http.StatusNotFound || !strings.Contains(res.Message, "does not exist") {
		t.Fatalf("no route: %d %+v", code, res)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	req.Header.Set("Origin", "http://shop.example")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("cors headers = %v", resp.Header)
	}
}
