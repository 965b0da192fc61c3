package router

import (
	"github.com/gin-gonic/gin"
	"github.com/medico/backend/internal/domain/identity"
	"github.com/medico/backend/internal/interfaces/http/handler"
	"github.com/medico/backend/internal/interfaces/http/middleware"
)

// Storefront holds the handlers and guards behind the storefront's routes
type Storefront struct {
	System    *handler.SystemHandler
	Checkout  *handler.CheckoutHandler
	Webhook   *handler.WebhookHandler
	Product   *handler.ProductHandler
	Category  *handler.CategoryHandler
	Auth      *handler.AuthHandler
	Selection *handler.SelectionHandler

	// Authenticate verifies the bearer token and stores the claims
	Authenticate gin.HandlerFunc
	// AuthLimit throttles sign-up and sign-in; nil disables it
	AuthLimit gin.HandlerFunc
}

// Groups builds the storefront route groups. The first group mounts at the
// engine root, the rest under the versioned API prefix.
func (s Storefront) Groups() (public *DomainGroup, api []*DomainGroup) {
	public = NewDomainGroup("storefront", "")
	public.GET("/", s.System.Root)
	public.GET("/health", s.System.Health)
	public.GET("/success", s.System.CheckoutSuccess)
	public.GET("/cancel", s.System.CheckoutCancel)
	public.GET("/medicines", s.Product.Medicines)
	public.POST("/payment", s.Checkout.CreatePayment)
	public.GET("/track/:trackingId", s.Checkout.Track)
	public.POST("/webhooks/stripe", s.Webhook.HandleStripe)

	limit := s.AuthLimit
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}
	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/signup", limit, s.Auth.SignUp)
	authRoutes.POST("/signin", limit, s.Auth.SignIn)
	authRoutes.POST("/refresh", s.Auth.Refresh)
	authRoutes.GET("/me", s.Authenticate, s.Auth.Me)
	authRoutes.POST("/signout", s.Authenticate, s.Auth.SignOut)

	vendorOnly := []gin.HandlerFunc{s.Authenticate, middleware.RequireRole(identity.RoleVendor)}
	guarded := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, vendorOnly...), h)
	}

	catalogRoutes := NewDomainGroup("catalog", "/catalog")
	catalogRoutes.GET("/products", s.Product.List)
	catalogRoutes.GET("/products/:id", s.Product.GetByID)
	catalogRoutes.POST("/products", guarded(s.Product.Create)...)
	catalogRoutes.PUT("/products/:id", guarded(s.Product.Update)...)
	catalogRoutes.DELETE("/products/:id", guarded(s.Product.Delete)...)
	catalogRoutes.POST("/products/:id/image", guarded(s.Product.UploadImage)...)
	catalogRoutes.GET("/categories", s.Category.List)
	catalogRoutes.POST("/categories", guarded(s.Category.Create)...)

	selectionRoutes := NewDomainGroup("selection", "/selection").Use(s.Authenticate)
	selectionRoutes.GET("", s.Selection.Get)
	selectionRoutes.POST("/toggle", s.Selection.Toggle)
	selectionRoutes.DELETE("", s.Selection.Clear)

	systemRoutes := NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", s.System.Info)

	return public, []*DomainGroup{authRoutes, catalogRoutes, selectionRoutes, systemRoutes}
}

// Mount registers every storefront group on r and sets the routes up
func (s Storefront) Mount(r *Router) {
	public, api := s.Groups()
	r.RegisterRoot(public)
	for _, g := range api {
		r.Register(g)
	}
	r.Setup()
}
