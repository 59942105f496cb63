package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/attendance-tracker/internal/application"
)

var (
	errBadRequestBody = errors.New("無効なリクエスト形式です。")
	errInvalidID      = errors.New("無効な ID です。")
	errInvalidUserID  = errors.New("無効なユーザー ID です。")
	errInvalidDate    = errors.New("無効な日付です。")
	errInvalidYear    = errors.New("無効な年度です。")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "この操作を実行する権限がありません。",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "指定されたリソースが見つかりません。"})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
			ErrorCode: "ALREADY_EXISTS",
			Message:   "同じ内容のデータが既に登録されています。",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			details := localizeValidationErrors(vErr)
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "入力内容に誤りがあります。",
				Errors:  details,
			})
			return
		}

		var inUseErr *application.InUseError
		if errors.As(err, &inUseErr) {
			r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
				ErrorCode: "RESOURCE_IN_USE",
				Message:   fmt.Sprintf("%sは使用中のため削除できません。", inUseErr.Resource),
			})
			return
		}

		var periodErr *application.InvalidPeriodError
		if errors.As(err, &periodErr) {
			r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
				ErrorCode: "INVALID_PERIOD",
				Message:   "期間の指定が正しくありません。",
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "サーバー内部でエラーが発生しました。"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "リクエスト内容が正しくありません。"
	case http.StatusUnauthorized:
		return "認証が必要です。"
	case http.StatusForbidden:
		return "この操作を実行する権限がありません。"
	case http.StatusNotFound:
		return "指定されたリソースが見つかりません。"
	case http.StatusConflict:
		return "要求はリソースの現在の状態と競合しています。"
	case http.StatusUnprocessableEntity:
		return "入力内容に誤りがあります。"
	default:
		return "サーバー内部でエラーが発生しました。"
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "id is required":
		return "ID は必須です。"
	case "name is required":
		return "名前は必須です。"
	case "order must not be negative":
		return "表示順は 0 以上で指定してください。"
	case "group is required":
		return "グループは必須です。"
	case "group does not exist":
		return "指定されたグループは存在しません。"
	case "employee type is required":
		return "社員種別は必須です。"
	case "employee type does not exist":
		return "指定された社員種別は存在しません。"
	case "user is required":
		return "ユーザーは必須です。"
	case "user does not exist":
		return "指定されたユーザーは存在しません。"
	case "location is required":
		return "勤務場所は必須です。"
	case "location does not exist":
		return "指定された勤務場所は存在しません。"
	case "date must be in YYYY-MM-DD form":
		return "日付は YYYY-MM-DD 形式で指定してください。"
	case "encoding must be utf-8 or sjis":
		return "エンコーディングは utf-8 または sjis を指定してください。"
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
