package server

import (
	"ecshop/internal/handler"
	"ecshop/internal/infra/storage"

	"github.com/labstack/echo/v4"
)

// ルーティングに載せるハンドラ一式
type Handlers struct {
	Auth            *handler.AuthHandler
	AdminUser       *handler.AdminUserHandler
	Product         *handler.ProductHandler
	AdminProduct    *handler.AdminProductHandler
	Cart            *handler.CartHandler
	Wishlist        *handler.WishlistHandler
	Coupon          *handler.CouponHandler
	Order           *handler.OrderHandler
	Delivery        *handler.DeliveryHandler
	CustomerService *handler.CustomerServiceHandler
	Wallet          *handler.WalletHandler
	Review          *handler.ReviewHandler
	Post            *handler.PostHandler
	Tag             *handler.TagHandler
	Socket          *handler.SocketHandler
}

// APIは /api 配下、websocketは /ws、画像は /uploads
func RegisterRoutes(e *echo.Echo, h Handlers, gd handler.Guards, uploadDir string) {
	e.Static(storage.PublicPrefix, uploadDir)

	api := e.Group("/api")
	h.Auth.RegisterRoutes(api, gd)
	h.AdminUser.RegisterRoutes(api, gd)
	h.Product.RegisterRoutes(api)
	h.AdminProduct.RegisterRoutes(api, gd)
	h.Cart.RegisterRoutes(api, gd)
	h.Wishlist.RegisterRoutes(api, gd)
	h.Coupon.RegisterRoutes(api, gd)
	h.Order.RegisterRoutes(api, gd)
	h.Delivery.RegisterRoutes(api, gd)
	h.CustomerService.RegisterRoutes(api, gd)
	h.Wallet.RegisterRoutes(api, gd)
	h.Review.RegisterRoutes(api, gd)
	h.Post.RegisterRoutes(api, gd)
	h.Tag.RegisterRoutes(api, gd)

	h.Socket.RegisterRoutes(e)
}
