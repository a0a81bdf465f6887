package registry

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"vidhub/internal/pkg/action"
	"vidhub/internal/pkg/config"
	"vidhub/internal/pkg/events"
	"vidhub/internal/pkg/uploader"
	"vidhub/internal/pkg/worker"
	"vidhub/pkg/cache"
	"vidhub/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ModuleContext 模块初始化所需的上下文
type ModuleContext struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Router   *gin.Engine
	Cache    cache.CacheService
	Uploader uploader.Uploader
	Events   events.Publisher
	Workers  *worker.WorkerPool
	Metrics  *metrics.MetricsCollector
	Logger   *zap.Logger
	Config   config.Config

	routes map[action.Action]string
}

// Module 模块接口
type Module interface {
	// Name 返回模块名称
	Name() string

	// Init 初始化模块（依赖注入、路由注册等）
	Init(ctx *ModuleContext) error

	// Priority 返回初始化优先级（数字越小越先初始化）
	// 例如：user 模块需要先于 video 模块初始化
	Priority() int
}

// moduleRegistry 全局模块注册表
var moduleRegistry = make(map[string]Module)

// Register 注册模块
func Register(module Module) {
	moduleRegistry[module.Name()] = module
}

// GetModules 获取所有已注册的模块
func GetModules() map[string]Module {
	return moduleRegistry
}

// Handle 将操作绑定到路由，同一操作只能绑定一次
func (ctx *ModuleContext) Handle(group gin.IRoutes, act action.Action, method, path string, handlers ...gin.HandlerFunc) {
	if !act.Valid() {
		panic(fmt.Sprintf("registry: unknown action %q", act))
	}
	if ctx.routes == nil {
		ctx.routes = make(map[action.Action]string)
	}
	route := method + " " + path
	if prev, ok := ctx.routes[act]; ok {
		panic(fmt.Sprintf("registry: action %s already bound to %s", act, prev))
	}
	ctx.routes[act] = route

	chain := append([]gin.HandlerFunc{actionMetrics(ctx.Metrics, act)}, handlers...)
	group.Handle(method, path, chain...)
}

// Routes 返回操作与路由的绑定关系
func (ctx *ModuleContext) Routes() map[action.Action]string {
	out := make(map[action.Action]string, len(ctx.routes))
	for k, v := range ctx.routes {
		out[k] = v
	}
	return out
}

// CheckActions 所有操作都必须绑定路由
func (ctx *ModuleContext) CheckActions() error {
	var missing []string
	for _, act := range action.All() {
		if _, ok := ctx.routes[act]; !ok {
			missing = append(missing, act.String())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("actions without route: %s", strings.Join(missing, ", "))
	}
	return nil
}

// InitModules 按优先级初始化所有模块，并校验操作路由完整性
func InitModules(ctx *ModuleContext) error {
	if err := initModules(ctx); err != nil {
		return err
	}
	return ctx.CheckActions()
}

func initModules(ctx *ModuleContext) error {
	modules := make([]Module, 0, len(moduleRegistry))
	for _, m := range moduleRegistry {
		modules = append(modules, m)
	}

	// 优先级相同按名称排序，保证初始化顺序稳定
	sort.Slice(modules, func(i, j int) bool {
		if modules[i].Priority() != modules[j].Priority() {
			return modules[i].Priority() < modules[j].Priority()
		}
		return modules[i].Name() < modules[j].Name()
	})

	// 按顺序初始化
	for _, module := range modules {
		if err := module.Init(ctx); err != nil {
			return fmt.Errorf("init module %s: %w", module.Name(), err)
		}
		if ctx.Logger != nil {
			ctx.Logger.Info("module initialized", zap.String("module", module.Name()))
		}
	}

	return nil
}

func actionMetrics(mc *metrics.MetricsCollector, act action.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		outcome := "ok"
		if c.Writer.Status() >= 400 {
			outcome = "error"
		}
		mc.RecordAction(act.String(), outcome, time.Since(start))
	}
}
