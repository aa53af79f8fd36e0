package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rushteam/shoprec/pkg/logging"
)

// 错误码
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeMissingVisitor     = "MISSING_VISITOR"
	CodeNotFound           = "NOT_FOUND"
	CodeCatalogUnavailable = "CATALOG_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// Response 是所有 JSON 接口的统一响应体。
type Response struct {
	Status   string    `json:"status"`
	Data     any       `json:"data,omitempty"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata 是响应元信息。
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
	Count     *int      `json:"count,omitempty"`
}

// APIError 是错误响应的详情。
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("marshal response failed", logging.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("write response failed", logging.Err(err))
	}
}

func (s *Server) respondOK(w http.ResponseWriter, r *http.Request, data any, count *int) {
	s.respondJSON(w, http.StatusOK, &Response{
		Status:   "success",
		Data:     data,
		Metadata: s.metadata(r, count),
	})
}

// respondError 输出错误响应，err 非空时记录日志（5xx 记 ERROR，其余记 DEBUG）。
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		fields := []logging.Field{
			logging.String("code", code),
			logging.String("path", r.URL.Path),
			logging.Err(err),
		}
		if status >= http.StatusInternalServerError {
			s.logger.Error("api error", fields...)
		} else {
			s.logger.Debug("api error", fields...)
		}
	}
	s.respondJSON(w, status, &Response{
		Status:   "error",
		Metadata: s.metadata(r, nil),
		Error:    &APIError{Code: code, Message: message},
	})
}

func (s *Server) metadata(r *http.Request, count *int) Metadata {
	return Metadata{
		Timestamp: s.now().UTC(),
		RequestID: requestID(r),
		Count:     count,
	}
}
