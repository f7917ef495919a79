package handler

import (
	"context"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/de"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/dienstwunsch/backend/internal/config"
	"github.com/dienstwunsch/backend/internal/domain"
	"github.com/dienstwunsch/backend/internal/repository"
	"github.com/dienstwunsch/backend/internal/workflow"
)

// ListCache 缓存“我的愿望”列表，可以为 nil
type ListCache interface {
	GetShiftRequests(ctx context.Context, ownerID string, filter domain.ShiftRequestFilter) ([]*domain.ShiftRequest, int64, bool, error)
	SetShiftRequests(ctx context.Context, ownerID string, version int64, filter domain.ShiftRequestFilter, requests []*domain.ShiftRequest) error
	InvalidateShiftRequests(ctx context.Context, ownerID string) error
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository *repository.Repository
	workflow   *workflow.Workflow
	translator ut.Translator
	listCache  ListCache

	Mux *chi.Mux
}

// validator 没有自带德语翻译，这里只注册用到的规则
var germanMessages = map[string]string{
	"required": "{0} ist erforderlich",
	"max":      "{0} darf höchstens {1} Zeichen lang sein",
	"oneof":    "{0} muss einer der folgenden Werte sein: {1}",
}

func registerTranslations(validate *validator.Validate, trans ut.Translator) error {
	for tag, text := range germanMessages {
		err := validate.RegisterTranslation(tag, trans,
			func(ut ut.Translator) error {
				return ut.Add(tag, text, true)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				t, _ := ut.T(fe.Tag(), fe.Field(), fe.Param())
				return t
			},
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func NewHandler(cfg *config.Config, repo *repository.Repository, wf *workflow.Workflow, listCache ListCache) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// 错误信息中使用 json 字段名
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	de := de.New()
	uni := ut.New(de, de)
	trans, _ := uni.GetTranslator("de")
	if err := registerTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		workflow:   wf,
		translator: trans,
		listCache:  listCache,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/shift-requests", func(r chi.Router) {
			r.Get("/", h.GetMyShiftRequests)
			r.Post("/", h.SubmitShiftRequest)
			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", h.UpdateShiftRequestRemarks)
				r.Delete("/", h.DeleteShiftRequest)
			})
		})

		// 审核接口只对管理员开放
		r.Route("/admin", func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.GetAllUsers)
				r.Post("/", h.CreateUser)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(h.userInfo)
					r.Get("/", h.GetUserInfo)
					r.Group(func(r chi.Router) {
						r.Use(h.preventOperateInitialAdmin)
						r.Patch("/", h.UpdateUser)
						r.Delete("/", h.DeleteUser)
						r.Patch("/password", h.UpdateUserPassword)
					})
				})
			})
			r.Get("/shift-requests", h.GetAllShiftRequests)
			r.Patch("/shift-requests/{id}/status", h.ReviewShiftRequest)
		})
	})
}
