package api_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/pairrank/internal/adapters/http/api"
	"github.com/okian/pairrank/internal/adapters/repository"
	"github.com/okian/pairrank/internal/adapters/sessioncache"
	service "github.com/okian/pairrank/internal/app"
	"github.com/okian/pairrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type testHarness struct {
	mux  *http.ServeMux
	priv ed25519.PrivateKey
}

func newHarness(t *testing.T, signed bool) *testHarness {
	t.Helper()
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	cache := sessioncache.NewInMemoryCache()
	t.Cleanup(func() { cache.Close() })

	svc := service.New(
		service.WithStore(repository.NewInMemoryStore()),
		service.WithCache(cache),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	h := &testHarness{mux: http.NewServeMux()}
	var opts []api.ServerOption
	if signed {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			t.Fatalf("generate key: %v", err)
		}
		h.priv = priv
		opts = append(opts, api.WithPublicKey(pub))
	}

	server := api.NewServer(svc, api.StatsFunc(func(ctx context.Context) any {
		return svc.GetStats(ctx)
	}), opts...)
	server.Register(context.Background(), h.mux)
	return h
}

func (h *testHarness) post(t *testing.T, payload string) *httptest.ResponseRecorder {
	t.Helper()
	body := []byte(payload)
	r := httptest.NewRequest(http.MethodPost, "/interactions", bytes.NewReader(body))
	if h.priv != nil {
		timestamp := "1700000000"
		message := append([]byte(timestamp), body...)
		r.Header.Set(api.SignatureHeader, hex.EncodeToString(ed25519.Sign(h.priv, message)))
		r.Header.Set(api.TimestampHeader, timestamp)
	}
	w := httptest.NewRecorder()
	h.mux.ServeHTTP(w, r)
	return w
}

type reply struct {
	Type int `json:"type"`
	Data struct {
		Content    string `json:"content"`
		Components []struct {
			Type       int `json:"type"`
			Components []struct {
				Label    string `json:"label"`
				CustomID string `json:"custom_id"`
			} `json:"components"`
		} `json:"components"`
	} `json:"data"`
}

func decodeReply(t *testing.T, w *httptest.ResponseRecorder) reply {
	t.Helper()
	var out reply
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	return out
}

func addPayload(name string) string {
	return `{"type":2,"member":{"user":{"id":"1","username":"alice"}},"data":{"name":"rate","options":[{"name":"add","options":[{"name":"item_type","value":"artist"},{"name":"item_name","value":"` + name + `"}]}]}}`
}

func componentPayload(customID string) string {
	return `{"type":3,"member":{"user":{"id":"1","username":"alice"}},"data":{"custom_id":"` + customID + `"}}`
}

func TestInteractionPing(t *testing.T) {
	Convey("Given an unsigned webhook server", t, func() {
		h := newHarness(t, false)

		Convey("When a ping arrives", func() {
			w := h.post(t, `{"type":1}`)

			Convey("Then it is answered with a pong", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeReply(t, w).Type, ShouldEqual, 1)
			})
		})

		Convey("When the body is not JSON", func() {
			w := h.post(t, `{broken`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the payload names no user", func() {
			w := h.post(t, `{"type":2,"data":{"name":"rate"}}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestInteractionSignature(t *testing.T) {
	Convey("Given a signature-enforcing webhook server", t, func() {
		h := newHarness(t, true)

		Convey("When a correctly signed ping arrives", func() {
			w := h.post(t, `{"type":1}`)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When an unsigned request arrives", func() {
			r := httptest.NewRequest(http.MethodPost, "/interactions", bytes.NewReader([]byte(`{"type":1}`)))
			w := httptest.NewRecorder()
			h.mux.ServeHTTP(w, r)

			So(w.Code, ShouldEqual, http.StatusUnauthorized)
		})
	})
}

func TestInteractionInterviewFlow(t *testing.T) {
	Convey("Given a user with one artist", t, func() {
		h := newHarness(t, false)

		first := decodeReply(t, h.post(t, addPayload("b")))
		So(first.Data.Content, ShouldContainSubstring, "first artist")

		Convey("When a second artist is added", func() {
			w := h.post(t, addPayload("c"))
			So(w.Code, ShouldEqual, http.StatusOK)
			question := decodeReply(t, w)

			Convey("Then a two-button comparison is asked", func() {
				So(question.Data.Content, ShouldContainSubstring, "Which artist do you prefer?")
				So(len(question.Data.Components), ShouldEqual, 1)
				row := question.Data.Components[0]
				So(len(row.Components), ShouldEqual, 2)
				So(row.Components[0].Label, ShouldEqual, "c")
				So(row.Components[1].Label, ShouldEqual, "b")
			})

			Convey("And clicking the new item finishes the interview", func() {
				newItemButton := question.Data.Components[0].Components[0]

				done := decodeReply(t, h.post(t, componentPayload(newItemButton.CustomID)))
				So(done.Data.Content, ShouldContainSubstring, "rated 100.00")

				Convey("And replaying the click finds no session", func() {
					stale := decodeReply(t, h.post(t, componentPayload(newItemButton.CustomID)))
					So(stale.Data.Content, ShouldContainSubstring, "no longer active")
				})

				Convey("And the listing shows both values best first", func() {
					listing := decodeReply(t, h.post(t, `{"type":2,"member":{"user":{"id":"1","username":"alice"}},"data":{"name":"rate","options":[{"name":"list","options":[{"name":"item_type","value":"artist"}]}]}}`))
					So(listing.Data.Content, ShouldContainSubstring, "c: 100.00")
					So(listing.Data.Content, ShouldContainSubstring, "b: 0.00")
				})
			})

			Convey("And adding the same artist again is refused conversationally", func() {
				again := decodeReply(t, h.post(t, addPayload("b")))
				So(again.Data.Content, ShouldContainSubstring, "already rating")
			})
		})

		Convey("When a malformed token is clicked", func() {
			w := h.post(t, componentPayload("subject_garbage"))
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When show_types is asked", func() {
			types := decodeReply(t, h.post(t, `{"type":2,"member":{"user":{"id":"1","username":"alice"}},"data":{"name":"rate","options":[{"name":"show_types"}]}}`))
			So(types.Data.Content, ShouldContainSubstring, "artist")
		})

		Convey("When an item is removed", func() {
			removed := decodeReply(t, h.post(t, `{"type":2,"member":{"user":{"id":"1","username":"alice"}},"data":{"name":"rate","options":[{"name":"remove","options":[{"name":"item_type","value":"artist"},{"name":"item_name","value":"b"}]}]}}`))
			So(removed.Data.Content, ShouldContainSubstring, "Removed b")
		})

		Convey("When echo is invoked", func() {
			echoed := decodeReply(t, h.post(t, `{"type":2,"user":{"id":"1","username":"alice"},"data":{"name":"echo","options":[{"name":"text","value":"hello"}]}}`))
			So(echoed.Data.Content, ShouldEqual, "hello")
		})
	})
}

func TestHealthAndStatsEndpoints(t *testing.T) {
	Convey("Given a registered server", t, func() {
		h := newHarness(t, false)

		Convey("When healthz is probed", func() {
			r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			w := httptest.NewRecorder()
			h.mux.ServeHTTP(w, r)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("When stats are fetched", func() {
			r := httptest.NewRequest(http.MethodGet, "/stats", nil)
			w := httptest.NewRecorder()
			h.mux.ServeHTTP(w, r)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "items_tracked")
		})

		Convey("When metrics are scraped", func() {
			r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			w := httptest.NewRecorder()
			h.mux.ServeHTTP(w, r)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "pairrank_rating_")
		})
	})
}
