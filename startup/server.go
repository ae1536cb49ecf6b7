package startup

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casbin/casbin"
	"github.com/gorilla/mux"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"

	"pgstay/cache"
	"pgstay/casbinAuthorization"
	"pgstay/domain"
	"pgstay/handlers"
	application "pgstay/service"
	"pgstay/startup/config"
	"pgstay/store"
)

type Server struct {
	config *config.Config
}

var Logger = logrus.New()

const (
	LogFilePath = "/app/logs/pgstay.log"
)

type CustomFormatter struct{}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	msg := fmt.Sprintf("[%s] [%s] %s\n",
		entry.Time.Format("2006-01-02T15:04:05Z07:00"),
		entry.Level,
		entry.Message,
	)

	return []byte(msg), nil
}

func initLogger() {
	writer, err := rotatelogs.New(
		LogFilePath+"_%Y%m%d%H%M",
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		Logger.Warnf("Failed to create rotatelogs hook, logging to stdout: %v", err)
		return
	}
	Logger.SetOutput(writer)

	Logger.SetFormatter(&CustomFormatter{})
}

func NewServer(config *config.Config) *Server {
	return &Server{
		config: config,
	}
}

func (server *Server) initMongoClient(httpClient *http.Client) *mongo.Client {
	client, err := store.GetClientWithHTTPConfig(server.config.PGStayDBHost, server.config.PGStayDBPort, httpClient)
	if err != nil {
		log.Fatal(err)
	}
	return client
}

func (server *Server) initPropertyStore(client *mongo.Client, tracer trace.Tracer) domain.PropertyStore {
	return store.NewPropertyMongoDBStore(client, tracer)
}

func (server *Server) initTenantStore(client *mongo.Client, tracer trace.Tracer) domain.TenantStore {
	return store.NewTenantMongoDBStore(client, tracer)
}

func (server *Server) initVisitStore(client *mongo.Client, tracer trace.Tracer) domain.VisitStore {
	return store.NewVisitMongoDBStore(client, tracer)
}

func (server *Server) Start() {

	initLogger()

	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			MaxConnsPerHost:     10,
		},
	}

	mongoClient := server.initMongoClient(httpClient)
	defer func(mongoClient *mongo.Client, ctx context.Context) {
		err := mongoClient.Disconnect(ctx)
		if err != nil {
			Logger.Warn(err)
		}
	}(mongoClient, context.Background())

	ctx := context.Background()
	exp, err := newExporter(server.config.JaegerAddress)
	if err != nil {
		log.Fatalf("Failed to Initialize Exporter: %v", err)
	}

	tp := newTraceProvider(exp)
	defer func() { _ = tp.Shutdown(ctx) }()
	otel.SetTracerProvider(tp)
	tracer := tp.Tracer("pgstay_service")
	otel.SetTextMapPropagator(propagation.TraceContext{})

	cacheAddress := fmt.Sprintf("%s:%s", server.config.PropertyCacheHost, server.config.PropertyCachePort)
	propertyCache := cache.New(cacheAddress, Logger, tracer)
	propertyCache.Ping()

	notifier := application.NewNotifier(server.config.NotificationServiceHost, server.config.NotificationServicePort, Logger)

	propertyStore := server.initPropertyStore(mongoClient, tracer)
	tenantStore := server.initTenantStore(mongoClient, tracer)
	visitStore := server.initVisitStore(mongoClient, tracer)

	propertyService := application.NewPropertyService(propertyStore, propertyCache, tracer, Logger)
	tenantService := application.NewTenantService(tenantStore, propertyService, tracer, Logger)
	visitService := application.NewVisitService(visitStore, propertyStore, notifier, tracer, Logger)

	propertyHandler := handlers.NewPropertyHandler(propertyService, tracer, Logger)
	tenantHandler := handlers.NewTenantHandler(tenantService, tracer, Logger)
	visitHandler := handlers.NewVisitHandler(visitService, tracer, Logger)

	server.start(propertyHandler, tenantHandler, visitHandler)
}

func (server *Server) start(propertyHandler *handlers.PropertyHandler, tenantHandler *handlers.TenantHandler, visitHandler *handlers.VisitHandler) {
	router := mux.NewRouter()
	router.Use(MiddlewareContentTypeSet)
	router.Use(ExtractTraceInfoMiddleware)

	enforcer, err := casbin.NewEnforcerSafe("./rbac_model.conf", "./policy.csv")
	if err != nil {
		log.Fatal(err)
	}
	router.Use(casbinAuthorization.CasbinMiddleware(enforcer, Logger))

	propertyHandler.Init(router)
	tenantHandler.Init(router)
	visitHandler.Init(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", server.config.Port),
		Handler:      router,
		IdleTimeout:  120 * time.Second,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	wait := time.Second * 15
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Println(err)
		}
	}()

	c := make(chan os.Signal, 1)

	signal.Notify(c, os.Interrupt)
	signal.Notify(c, syscall.SIGTERM)

	<-c

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Error Shutting Down Server %s", err)
	}
	log.Println("Server Gracefully Stopped")
}

func newExporter(address string) (*jaeger.Exporter, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(address)))
	if err != nil {
		return nil, err
	}
	return exp, nil
}

func newTraceProvider(exp sdktrace.SpanExporter) *sdktrace.TracerProvider {
	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("pgstay_service"),
		),
	)

	if err != nil {
		panic(err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(r),
	)
}

func MiddlewareContentTypeSet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, h *http.Request) {
		rw.Header().Add("Content-Type", "application/json")
		rw.Header().Set("X-Content-Type-Options", "nosniff")
		rw.Header().Set("X-Frame-Options", "DENY")

		next.ServeHTTP(rw, h)
	})
}

func ExtractTraceInfoMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
