// Package routes defines the API routing configuration.
// It wires repositories, services and handlers together and mounts every
// route under /api/v1 with its middleware.
package routes

import (
	"insurecow/internal/config"
	apperrors "insurecow/internal/errors"
	"insurecow/internal/handlers"
	"insurecow/internal/middleware"
	"insurecow/internal/models"
	"insurecow/internal/policy"
	"insurecow/internal/repositories"
	"insurecow/internal/repositories/cache"
	"insurecow/internal/services/account"
	"insurecow/internal/services/asset"
	"insurecow/internal/services/catalog"
	"insurecow/internal/services/insurance"
	"insurecow/internal/services/otp"
	"insurecow/internal/services/profile"
	"insurecow/internal/services/registration"
	"insurecow/internal/services/role"
	"insurecow/internal/services/session"
	"insurecow/internal/services/user"
	"insurecow/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes. otpOpts customise OTP
// generation and delivery.
func SetupRoutes(app *fiber.App, db *gorm.DB, cacheSvc *cache.CacheService, cfg *config.Config, otpOpts ...otp.Option) {
	repos := repositories.New(db, cacheSvc)
	pol := policy.New()
	hasher := utils.NewPasswordHasher(cfg.BcryptCost)

	// Initialize services in dependency order
	sessionService := session.NewService(repos, hasher, session.Config{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	provisioner := account.NewProvisioner(hasher, sessionService)
	otpService := otp.NewService(repos, otpOpts...)
	registrationService := registration.NewService(repos, otpService, provisioner)
	profileService := profile.NewService(repos)
	userService := user.NewService(repos, hasher, sessionService, profileService, provisioner, pol)
	roleService := role.NewService(repos, pol)
	assetService := asset.NewService(repos, pol)
	insuranceService := insurance.NewService(repos, pol)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(registrationService, sessionService, roleService)
	userHandler := handlers.NewUserHandler(profileService, userService)
	adminHandler := handlers.NewAdminHandler(userService, roleService)
	assetHandler := handlers.NewAssetHandler(assetService)
	insuranceHandler := handlers.NewInsuranceHandler(insuranceService)
	healthHandler := handlers.NewHealthHandler(db, cacheSvc)

	authMiddleware := middleware.NewAuthMiddleware(sessionService, pol)

	app.Get("/health", healthHandler.Check)

	api := app.Group("/api/v1")

	setupPublicRoutes(api.Group("/auth/public"), authHandler, cfg)
	setupUserRoutes(api.Group("/auth/user", authMiddleware.Handler), userHandler, authMiddleware)
	setupRoleRoutes(api.Group("/auth/admin", authMiddleware.Handler, authMiddleware.RequireSuperuser()), adminHandler)
	setupAdministratorRoutes(api.Group("/administrator", authMiddleware.Handler), adminHandler, healthHandler, authMiddleware)
	assets := api.Group("/asset", authMiddleware.Handler)
	setupAssetRoutes(assets, assetHandler)
	mountCatalog(assets, "assets-type", handlers.NewCatalogHandler(catalog.NewService[models.AssetType](repos.AssetTypes, pol, catalog.AssetTypes)), authMiddleware)
	mountCatalog(assets, "breeds", handlers.NewCatalogHandler(catalog.NewService[models.Breed](repos.Breeds, pol, catalog.Breeds)), authMiddleware)
	mountCatalog(assets, "colors", handlers.NewCatalogHandler(catalog.NewService[models.Color](repos.Colors, pol, catalog.Colors)), authMiddleware)
	mountCatalog(assets, "vaccination-status", handlers.NewCatalogHandler(catalog.NewService[models.VaccinationStatus](repos.VaccinationStatuses, pol, catalog.VaccinationStatuses)), authMiddleware)
	mountCatalog(assets, "deworming-status", handlers.NewCatalogHandler(catalog.NewService[models.DewormingStatus](repos.DewormingStatuses, pol, catalog.DewormingStatuses)), authMiddleware)

	setupInsuranceRoutes(api.Group("/insurance"), insuranceHandler, authMiddleware)
}

// authLimiter throttles credential-bearing endpoints per client IP.
func authLimiter(cfg *config.Config) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.AuthRateLimit,
		Expiration: cfg.AuthRateWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.Error(c, apperrors.ErrTooManyRequests)
		},
	})
}

func setupPublicRoutes(router fiber.Router, h *handlers.AuthHandler, cfg *config.Config) {
	register := router.Group("/register", authLimiter(cfg))
	register.Post("/step1", h.RegisterStep1)
	register.Post("/verify-otp", h.VerifyOTP)
	register.Post("/set-password", h.SetPassword)

	router.Post("/login", authLimiter(cfg), h.Login)
	router.Post("/token/verify", h.VerifyToken)
	router.Post("/token/refresh", h.RefreshToken)
	router.Get("/role-list", h.RoleList)
}

func setupUserRoutes(router fiber.Router, h *handlers.UserHandler, m *middleware.AuthMiddleware) {
	router.Get("/personal-info", h.GetPersonalInfo)
	router.Post("/personal-info", h.SetPersonalInfo)
	router.Get("/financial-info", h.GetFinancialInfo)
	router.Post("/financial-info", h.SetFinancialInfo)
	router.Get("/nominee-info", h.GetNomineeInfo)
	router.Post("/nominee-info", h.SetNomineeInfo)
	router.Get("/organization-info", h.GetOrganizationInfo)
	router.Post("/organization-info", h.SetOrganizationInfo)

	router.Get("/sub-users", h.SubUsers)
	router.Post("/sub-users", m.RequireRole(models.RoleOrganization), h.CreateSubUser)
	router.Post("/change-password", h.ChangePassword)
}

func setupRoleRoutes(router fiber.Router, h *handlers.AdminHandler) {
	router.Post("/role", h.CreateRole)
	router.Get("/role/:id", h.GetRole)
	router.Put("/role/:id", h.UpdateRole)
	router.Delete("/role/:id", h.DeleteRole)
}

func setupAdministratorRoutes(router fiber.Router, h *handlers.AdminHandler, health *handlers.HealthHandler, m *middleware.AuthMiddleware) {
	router.Post("/create-user", m.RequireStaff(), h.CreateUser)
	router.Get("/users/list", m.RequireSuperuser(), h.ListUsers)
	router.Patch("/users/:id/set-managed-by", m.RequireSuperuser(), h.SetManagedBy)
	router.Get("/cache-stats", m.RequireSuperuser(), health.CacheStats)
}

func setupAssetRoutes(router fiber.Router, h *handlers.AssetHandler) {
	router.Get("/assets", h.List)
	router.Post("/assets", h.Create)
	router.Get("/assets/:id", h.Get)
	router.Put("/assets/:id", h.Update)
	router.Delete("/assets/:id", h.Delete)
	router.Get("/assets/:id/history", h.History)
}

// mountCatalog serves a lookup table: the list to any signed-in user, the
// writes to superusers under /admin.
func mountCatalog[T any](router fiber.Router, path string, h *handlers.CatalogHandler[T], m *middleware.AuthMiddleware) {
	router.Get("/"+path, h.List)

	admin := router.Group("/admin/"+path, m.RequireSuperuser())
	admin.Post("", h.Create)
	admin.Get("/:id", h.Get)
	admin.Put("/:id", h.Update)
	admin.Delete("/:id", h.Delete)
}

func setupInsuranceRoutes(router fiber.Router, h *handlers.InsuranceHandler, m *middleware.AuthMiddleware) {
	router.Get("/insurance-product", h.Products)
	router.Post("/insurance-product", m.Handler,
		m.Require(policy.Any(policy.Role(models.RoleInsuranceCompany), policy.Superuser())), h.CreateProduct)

	router.Post("/insurance-apply", m.Handler, h.Apply)
	router.Get("/assets/:id/insurances", m.Handler, h.ListForAsset)
	router.Post("/insurance-claim", m.Handler, h.Claim)
	router.Get("/insurances/:id/claims", m.Handler, h.ListClaims)
	router.Patch("/insurance-claim/:id", m.Handler, h.ProcessClaim)
}
