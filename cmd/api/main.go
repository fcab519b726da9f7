package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ecshop/internal/authz"
	"ecshop/internal/config"
	"ecshop/internal/domain/model"
	"ecshop/internal/handler"
	"ecshop/internal/infra/db"
	"ecshop/internal/infra/export"
	"ecshop/internal/infra/redisbus"
	infraRepo "ecshop/internal/infra/repository"
	"ecshop/internal/infra/storage"
	"ecshop/internal/infra/vnpay"
	"ecshop/internal/logger"
	"ecshop/internal/realtime"
	"ecshop/internal/server"
	"ecshop/internal/usecase"
	auth "ecshop/internal/usecase/auth_usecase"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load(".env", "../.env")
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.GoEnv, cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg.PostgresDSN(), !cfg.IsProd())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(gormDB) }()
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	wishlistRepo := infraRepo.NewWishlistGormRepository(gormDB)
	couponRepo := infraRepo.NewCouponGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	paymentRepo := infraRepo.NewPaymentGormRepository(gormDB)
	reviewRepo := infraRepo.NewReviewGormRepository(gormDB)
	postRepo := infraRepo.NewPostGormRepository(gormDB)
	tagRepo := infraRepo.NewTagGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//権限
	az, err := authz.NewDefault()
	if err != nil {
		return err
	}

	//usecaseに渡す部品
	clock := usecase.SystemClock{}
	idGen := usecase.UUIDGenerator{}
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := auth.NewJWTIssuer(cfg.JWTSecret, cfg.JWTTTL)

	thumbs, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return err
	}
	if cfg.VNPayHashSecret == "" {
		log.Warn().Msg("VNP_HASH_SECRET is empty: wallet top-ups are disabled")
	}
	gateway := vnpay.NewClient(vnpay.Config{
		TmnCode:    cfg.VNPayTmnCode,
		HashSecret: cfg.VNPayHashSecret,
		PayURL:     cfg.VNPayURL,
		ReturnURL:  cfg.VNPayReturnURL,
		BankCode:   cfg.VNPayBankCode,
	})

	//チャット・注文通知
	hub := realtime.NewHub(
		realtime.NewRegistry(realtime.DefaultHistoryLimit),
		func(role model.Role) bool { return az.Can(role, authz.ChatAgent) },
		log.With().Str("component", "hub").Logger(),
	)

	//REDIS_ADDRがあればRedis経由で全インスタンスに配る
	var publisher usecase.OrderEventPublisher = hub
	var bus *redisbus.Bus
	if cfg.RedisAddr != "" {
		rdb, err := redisbus.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		bus = redisbus.New(rdb, cfg.OrderEventsChannel, log.With().Str("component", "redisbus").Logger())
		publisher = bus
	}

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, clock)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, clock)
	meUC := auth.NewMeUsecase(userRepo)
	staffUC := usecase.NewStaffUsecase(txm, userRepo, hasher, clock)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)
	productUC := usecase.NewProductUsecase(productRepo, reviewRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, productRepo)
	wishlistUC := usecase.NewWishlistUsecase(txm, wishlistRepo, productRepo)
	couponUC := usecase.NewCouponUsecase(couponRepo, cartRepo, auditRepo, clock)
	orderUC := usecase.NewOrderUsecase(txm, orderRepo, publisher, export.NewOrderXLSXExporter(), clock, log)
	deliveryUC := usecase.NewDeliveryUsecase(txm, orderRepo, az, publisher, clock, log)
	csUC := usecase.NewCustomerServiceUsecase(txm, orderRepo, clock)
	walletUC := usecase.NewWalletUsecase(txm, userRepo, paymentRepo, gateway, idGen, clock, cfg.PaymentResultURL, log)
	reviewUC := usecase.NewReviewUsecase(reviewRepo, productRepo)
	postUC := usecase.NewPostUsecase(postRepo, tagRepo, thumbs, log)
	tagUC := usecase.NewTagUsecase(tagRepo)

	//Handler生成
	handlers := server.Handlers{
		Auth:            handler.NewAuthHandler(registerUC, loginUC, meUC, staffUC),
		AdminUser:       handler.NewAdminUserHandler(staffUC, auditUC),
		Product:         handler.NewProductHandler(productUC),
		AdminProduct:    handler.NewAdminProductHandler(productUC),
		Cart:            handler.NewCartHandler(cartUC, couponUC),
		Wishlist:        handler.NewWishlistHandler(wishlistUC),
		Coupon:          handler.NewCouponHandler(couponUC),
		Order:           handler.NewOrderHandler(orderUC),
		Delivery:        handler.NewDeliveryHandler(deliveryUC),
		CustomerService: handler.NewCustomerServiceHandler(csUC),
		Wallet:          handler.NewWalletHandler(walletUC),
		Review:          handler.NewReviewHandler(reviewUC),
		Post:            handler.NewPostHandler(postUC),
		Tag:             handler.NewTagHandler(tagUC),
		Socket:          handler.NewSocketHandler(hub, userRepo, cfg.JWTSecret, cfg.FEURL),
	}
	guards := handler.NewGuards(cfg.JWTSecret, userRepo, az)

	e := server.New(server.Options{
		FEURL:     cfg.FEURL,
		UploadDir: thumbs.Dir(),
		RateLimit: cfg.RateLimit,
	}, log)
	server.RegisterRoutes(e, handlers, guards, thumbs.Dir())

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Start(gctx, e, addr, log) })
	g.Go(func() error { return hub.Run(gctx) })
	if bus != nil {
		g.Go(func() error { return bus.Subscribe(gctx, hub) })
	}
	return g.Wait()
}
