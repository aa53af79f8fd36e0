package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/preference"
)

const (
	// VisitorHeader 是携带访客 ID 的请求头
	VisitorHeader = "X-Visitor-ID"

	// VisitorCookie 是携带访客 ID 的 cookie
	VisitorCookie = "visitor_id"

	maxVisitorIDLen = 128
	maxLimit        = 50
	maxBodyBytes    = 4 << 10
)

type visitorKey struct{}

// visitorID 读取访客 ID，请求头优先于 cookie。非法或缺失时返回空串。
func visitorID(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(VisitorHeader))
	if id == "" {
		if c, err := r.Cookie(VisitorCookie); err == nil {
			id = strings.TrimSpace(c.Value)
		}
	}
	if !validVisitorID(id) {
		return ""
	}
	return id
}

// validVisitorID 只允许字母、数字、'-'、'_'、'.'；':' 是存储 key 的分隔符。
func validVisitorID(id string) bool {
	if id == "" || len(id) > maxVisitorIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

func (s *Server) requireVisitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := visitorID(r)
		if id == "" {
			s.respondError(w, r, http.StatusBadRequest, CodeMissingVisitor,
				"visitor id is required ("+VisitorHeader+" header or "+VisitorCookie+" cookie)", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), visitorKey{}, id)))
	})
}

func (s *Server) visitorStore(r *http.Request) *preference.Store {
	id, _ := r.Context().Value(visitorKey{}).(string)
	if id == "" {
		id = visitorID(r)
	}
	if id == "" {
		return nil
	}
	return s.prefs.For(r.Context(), id)
}

// parseLimit 解析 ?limit=，缺省返回 def；超过上限时截断。
func parseLimit(r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, true
}

// respondDomainError 把领域错误映射为 HTTP 状态码。
func (s *Server) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case r.Context().Err() != nil:
		// 客户端已断开，写什么都无所谓
		s.respondError(w, r, http.StatusServiceUnavailable, CodeInternal, "request canceled", nil)
	case core.IsNotFound(err):
		s.respondError(w, r, http.StatusNotFound, CodeNotFound, "product not found", err)
	case core.IsInvalidInput(err):
		s.respondError(w, r, http.StatusBadRequest, CodeInvalidInput, err.Error(), err)
	case core.IsUnavailable(err):
		s.respondError(w, r, http.StatusBadGateway, CodeCatalogUnavailable, "product catalog is unavailable", err)
	default:
		s.respondError(w, r, http.StatusInternalServerError, CodeInternal, "internal error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cat := s.engine.Catalog()
	data := map[string]string{
		"status":          "ok",
		"catalog":         cat.Name(),
		"cached_visitors": strconv.Itoa(s.prefs.Len()),
	}
	if rc, ok := cat.(*catalog.Resilient); ok {
		data["breaker"] = rc.State()
	}
	s.respondOK(w, r, data, nil)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r, s.engine.Config().ProductPageLimit())
	if !ok {
		s.respondError(w, r, http.StatusBadRequest, CodeInvalidInput, "limit must be a positive integer", nil)
		return
	}

	id := chi.URLParam(r, "id")
	reference, err := s.engine.Catalog().GetProduct(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	// 没有访客 ID 时按新访客处理，不记录偏好
	results, err := s.engine.Recommend(r.Context(), s.visitorStore(r), reference, limit)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	n := len(results)
	s.respondOK(w, r, results, &n)
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r, s.engine.Config().DefaultLimit())
	if !ok {
		s.respondError(w, r, http.StatusBadRequest, CodeInvalidInput, "limit must be a positive integer", nil)
		return
	}
	products, err := s.engine.Trending(r.Context(), limit)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	n := len(products)
	s.respondOK(w, r, products, &n)
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	s.respondOK(w, r, s.visitorStore(r).Profile(), nil)
}

func (s *Server) handleResetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs := s.visitorStore(r)
	prefs.Reset(r.Context())
	s.respondOK(w, r, prefs.Profile(), nil)
}

type viewRequest struct {
	ProductID string `json:"product_id"`
}

func (s *Server) handleRecordView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, CodeInvalidInput, "invalid request body", err)
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		s.respondError(w, r, http.StatusBadRequest, CodeInvalidInput, "product_id is required", nil)
		return
	}

	product, err := s.engine.Catalog().GetProduct(r.Context(), req.ProductID)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	prefs := s.visitorStore(r)
	s.engine.Session(prefs).UpdateUserPreferences(r.Context(), product)
	s.respondOK(w, r, prefs.Profile(), nil)
}
