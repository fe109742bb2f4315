package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"metachat.app/studio/internal/http/handler"
	"metachat.app/studio/internal/model"
	"metachat.app/studio/internal/service"
	"metachat.app/studio/internal/summary"
)

type mockChatService struct {
	createFn  func(ctx context.Context, params service.CreateMessageParams) (*model.Message, error)
	listFn    func(ctx context.Context) ([]model.Message, error)
	summaryFn func(ctx context.Context) model.SummarySnapshot
	clearFn   func(ctx context.Context) error
}

func (m *mockChatService) CreateMessage(ctx context.Context, params service.CreateMessageParams) (*model.Message, error) {
	return m.createFn(ctx, params)
}

func (m *mockChatService) ListMessages(ctx context.Context) ([]model.Message, error) {
	return m.listFn(ctx)
}

func (m *mockChatService) Summary(ctx context.Context) model.SummarySnapshot {
	return m.summaryFn(ctx)
}

func (m *mockChatService) ClearAll(ctx context.Context) error {
	return m.clearFn(ctx)
}

var _ = Describe("ChatHandler", func() {
	var (
		router *gin.Engine
		svc    *mockChatService
		w      *httptest.ResponseRecorder
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		svc = &mockChatService{}
		h := handler.NewChatHandler(svc)

		router = gin.New()
		router.GET("/api/messages", h.List)
		router.POST("/api/messages", h.Create)
		router.GET("/api/summary", h.Summary)
		router.DELETE("/api/messages", h.Clear)

		w = httptest.NewRecorder()
	})

	Describe("GET /api/messages", func() {
		It("returns the messages in id order", func() {
			svc.listFn = func(ctx context.Context) ([]model.Message, error) {
				return []model.Message{
					{ID: 1, AuthorIdentity: "Anonymous", Content: "hello", CreatedAt: time.Now()},
					{ID: 2, AuthorIdentity: "QuietWren-041", Content: "hi", CreatedAt: time.Now()},
				}, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp []map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp).To(HaveLen(2))
			Expect(resp[0]["id"]).To(BeNumerically("==", 1))
			Expect(resp[1]["authorIdentity"]).To(Equal("QuietWren-041"))
		})

		It("returns 500 when the service fails", func() {
			svc.listFn = func(ctx context.Context) ([]model.Message, error) {
				return nil, errors.New("pool closed")
			}

			req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("POST /api/messages", func() {
		It("creates and returns the message", func() {
			var got service.CreateMessageParams
			svc.createFn = func(ctx context.Context, params service.CreateMessageParams) (*model.Message, error) {
				got = params
				return &model.Message{ID: 9, AuthorIdentity: params.AuthorIdentity, Content: params.Content}, nil
			}

			body := `{"content":"hello","authorIdentity":"QuietWren-041"}`
			req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(got.Content).To(Equal("hello"))
			Expect(got.AuthorIdentity).To(Equal("QuietWren-041"))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["id"]).To(BeNumerically("==", 9))
		})

		It("returns 400 for empty content", func() {
			svc.createFn = func(ctx context.Context, params service.CreateMessageParams) (*model.Message, error) {
				return nil, service.ErrEmptyContent
			}

			req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{"content":"  "}`))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 for malformed JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{`))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 500 when the service fails", func() {
			svc.createFn = func(ctx context.Context, params service.CreateMessageParams) (*model.Message, error) {
				return nil, errors.New("deadlock detected")
			}

			req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{"content":"hi"}`))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("GET /api/summary", func() {
		It("returns the current summary text", func() {
			svc.summaryFn = func(ctx context.Context) model.SummarySnapshot {
				return model.SummarySnapshot{Text: "Two people traded greetings.", Version: 4}
			}

			req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp map[string]string
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["summary"]).To(Equal("Two people traded greetings."))
		})

		It("returns the placeholder for an empty room", func() {
			svc.summaryFn = func(ctx context.Context) model.SummarySnapshot {
				return model.SummarySnapshot{Text: summary.EmptyText}
			}

			req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring("No messages yet."))
		})
	})

	Describe("DELETE /api/messages", func() {
		It("returns 204 on success", func() {
			svc.clearFn = func(ctx context.Context) error { return nil }

			req := httptest.NewRequest(http.MethodDelete, "/api/messages", nil)
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(w.Body.Len()).To(BeZero())
		})

		It("returns 500 when the service fails", func() {
			svc.clearFn = func(ctx context.Context) error { return errors.New("pool closed") }

			req := httptest.NewRequest(http.MethodDelete, "/api/messages", nil)
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})
})
