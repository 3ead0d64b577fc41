package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"contractbuilder/internal/ai"
	"contractbuilder/internal/audit"
	"contractbuilder/internal/config"
	"contractbuilder/internal/middleware"
	"contractbuilder/internal/model"
	"contractbuilder/internal/notify"
	"contractbuilder/internal/pdf"
	"contractbuilder/internal/repository"
	"contractbuilder/internal/service"
	"contractbuilder/internal/storage"
	"contractbuilder/internal/testutil"
	"contractbuilder/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type apiFixture struct {
	router *gin.Engine
	db     *gorm.DB
	tokens *token.Manager
	files  *storage.MemoryStore
	events *notify.Recorder
	audit  *audit.MemorySink

	admin         *model.User
	provider      *model.User
	adminToken    string
	providerToken string
}

// envelope mirrors response.Response with the payload left raw.
type envelope struct {
	Status     string            `json:"status"`
	StatusCode int               `json:"status_code"`
	Data       json.RawMessage   `json:"data"`
	Error      string            `json:"error"`
	Details    map[string]string `json:"details"`
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	f := &apiFixture{
		db:     db,
		tokens: token.NewManager("handler-secret", time.Hour),
		files:  storage.NewMemoryStore("http://files.test/bucket"),
		events: &notify.Recorder{},
		audit:  audit.NewMemorySink(),
	}
	revocations := token.NewMemoryRevocationStore()

	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	contractRepo := repository.NewContractRepository(db)
	versionRepo := repository.NewContractVersionRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	renderer := pdf.NewRenderer()

	auth := middleware.NewAuthenticator(f.tokens, revocations, userRepo)
	authService := service.NewAuthService(userRepo, f.tokens, revocations, f.audit)

	f.router = gin.New()
	f.router.Use(middleware.RequestID(), middleware.Recovery(), middleware.AuditClient())
	NewHealthHandler(db, nil).RegisterRoutes(f.router)
	NewUploadHandler(f.files).RegisterRoutes(f.router)

	api := f.router.Group("/api")
	NewAuthHandler(authService, auth).RegisterRoutes(api)
	NewContractHandler(service.NewContractService(txManager, contractRepo, versionRepo, userRepo, templateRepo,
		settingsRepo, f.audit, f.events, renderer), auth).RegisterRoutes(api)
	NewProviderHandler(service.NewProviderService(txManager, contractRepo, settingsRepo, f.audit, f.events, renderer), auth).RegisterRoutes(api)
	NewTemplateHandler(service.NewTemplateService(templateRepo, contractRepo, f.audit), auth).RegisterRoutes(api)
	NewUserHandler(service.NewUserService(userRepo, contractRepo, f.audit), auth).RegisterRoutes(api)
	NewSettingsHandler(service.NewSettingsService(txManager, settingsRepo, f.files, f.audit), auth).RegisterRoutes(api)
	NewProfileHandler(service.NewProfileService(userRepo, f.files, f.audit), authService, auth).RegisterRoutes(api)
	NewAIHandler(service.NewAIService(settingsRepo, ai.Generator(nil), config.GeminiConfig{Model: "gemini-1.5-flash"}), auth).RegisterRoutes(api)
	NewAuditHandler(service.NewAuditService(repository.NewAuditRepository(db)), auth).RegisterRoutes(api)
	NewStatisticsHandler(service.NewStatisticsService(repository.NewStatisticsRepository(db), userRepo), auth).RegisterRoutes(api)

	f.admin = testutil.CreateAdmin(t, db)
	f.provider = testutil.CreateProvider(t, db)
	f.adminToken = f.issue(t, f.admin)
	f.providerToken = f.issue(t, f.provider)
	return f
}

func (f *apiFixture) issue(t *testing.T, user *model.User) string {
	t.Helper()
	signed, _, err := f.tokens.Issue(user.ID, user.Email, user.Role)
	require.NoError(t, err)
	return signed
}

func (f *apiFixture) do(method, path, bearer string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) upload(path, bearer, field, contentType string, data []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="upload"`)
	header.Set("Content-Type", contentType)
	part, _ := mw.CreatePart(header)
	_, _ = part.Write(data)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+bearer)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data), string(env.Data))
	}
	return env
}
