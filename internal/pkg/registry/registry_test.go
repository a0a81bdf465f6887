package registry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"vidhub/internal/pkg/action"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModule struct {
	name     string
	priority int
	order    *[]string
	err      error
	bind     []action.Action
}

func (m *fakeModule) Name() string  { return m.name }
func (m *fakeModule) Priority() int { return m.priority }
func (m *fakeModule) Init(ctx *ModuleContext) error {
	*m.order = append(*m.order, m.name)
	for i, act := range m.bind {
		path := "/" + m.name + "/" + string(rune('a'+i))
		ctx.Handle(ctx.Router, act, http.MethodGet, path, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	}
	return m.err
}

func withModules(t *testing.T, modules ...Module) {
	saved := moduleRegistry
	moduleRegistry = make(map[string]Module)
	for _, m := range modules {
		Register(m)
	}
	t.Cleanup(func() { moduleRegistry = saved })
}

func TestInitModules(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("priority order and full coverage", func(t *testing.T) {
		var order []string
		all := action.All()
		withModules(t,
			&fakeModule{name: "second", priority: 2, order: &order, bind: all[10:]},
			&fakeModule{name: "first", priority: 1, order: &order, bind: all[:10]},
		)

		ctx := &ModuleContext{Router: gin.New()}
		require.NoError(t, InitModules(ctx))
		assert.Equal(t, []string{"first", "second"}, order)
		assert.Len(t, ctx.Routes(), len(all))

		w := httptest.NewRecorder()
		ctx.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/first/a", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("missing action fails startup", func(t *testing.T) {
		var order []string
		withModules(t, &fakeModule{name: "partial", priority: 1, order: &order, bind: []action.Action{action.SetReaction}})

		err := InitModules(&ModuleContext{Router: gin.New()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "actions without route")
		assert.Contains(t, err.Error(), "publish")
	})

	t.Run("module error stops init", func(t *testing.T) {
		var order []string
		withModules(t,
			&fakeModule{name: "a", priority: 1, order: &order, err: errors.New("boom")},
			&fakeModule{name: "b", priority: 2, order: &order},
		)

		err := InitModules(&ModuleContext{Router: gin.New()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "init module a")
		assert.Equal(t, []string{"a"}, order)
	})

	t.Run("duplicate binding panics", func(t *testing.T) {
		ctx := &ModuleContext{Router: gin.New()}
		h := func(c *gin.Context) {}
		ctx.Handle(ctx.Router, action.GetVideo, http.MethodGet, "/x", h)
		assert.Panics(t, func() {
			ctx.Handle(ctx.Router, action.GetVideo, http.MethodGet, "/y", h)
		})
	})
}
