package resolver

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/graphupdater/pkg/definer"
	"github.com/kraklabs/graphupdater/pkg/graphmodel"
)

func defineModule(t *testing.T, reg *definer.Registry, qn string) {
	t.Helper()
	reg.Insert(definer.Descriptor{Node: graphmodel.NewNode(graphmodel.LabelModule, qn, nil)})
}

func TestResolveImports_MatchesBySuffix(t *testing.T) {
	reg := definer.NewRegistry(slog.Default())
	defineModule(t, reg, "proj.internal.handlers.user")
	defineModule(t, reg, "proj.internal.routes.auth")

	files := []*definer.FileDefinitions{
		{ModuleQN: "proj.internal.routes.auth", Imports: []definer.UnresolvedImport{
			{Raw: "project/internal/handlers/user"},
		}},
		{ModuleQN: "proj.internal.handlers.user"},
	}

	r := New(reg, nil)
	r.BuildIndex(files)
	edges, _ := r.ResolveImports("proj", files)

	require.Len(t, edges, 1)
	require.Equal(t, graphmodel.EdgeImports, edges[0].Type)
	require.Equal(t, "proj.internal.routes.auth", edges[0].SourceQN)
	require.Equal(t, "proj.internal.handlers.user", edges[0].TargetQN)
}

func TestResolveImports_UnknownRootBecomesExternal(t *testing.T) {
	reg := definer.NewRegistry(slog.Default())
	defineModule(t, reg, "proj.app.main")

	files := []*definer.FileDefinitions{
		{ModuleQN: "proj.app.main", Imports: []definer.UnresolvedImport{
			{Raw: "github.com/stretchr/testify"},
		}},
	}

	r := New(reg, []string{"github.com"})
	r.BuildIndex(files)
	edges, nodes := r.ResolveImports("proj", files)

	require.Len(t, nodes, 1)
	require.Equal(t, graphmodel.LabelExternalPackage, nodes[0].Label)
	require.Len(t, edges, 1)
	require.Equal(t, graphmodel.EdgeDependsOnExternal, edges[0].Type)
}

func TestResolveCalls_QualifiedThroughImportTable(t *testing.T) {
	reg := definer.NewRegistry(slog.Default())
	defineModule(t, reg, "proj.internal.handlers.user")
	defineModule(t, reg, "proj.internal.routes.auth")
	reg.Insert(definer.Descriptor{Node: graphmodel.NewNode(graphmodel.LabelFunction, "proj.internal.handlers.user.HandleUser", map[string]any{"name": "HandleUser"})})

	files := []*definer.FileDefinitions{
		{ModuleQN: "proj.internal.routes.auth",
			Imports: []definer.UnresolvedImport{{Raw: "project/internal/handlers/user", Alias: "user"}},
			Calls:   []definer.UnresolvedCall{{CallerQN: "proj.internal.routes.auth.RegisterAuthRoutes", Name: "user.HandleUser", Kind: definer.CallQualified}},
		},
		{ModuleQN: "proj.internal.handlers.user"},
	}

	r := New(reg, nil)
	r.BuildIndex(files)
	edges := r.ResolveCalls(files)

	require.Len(t, edges, 1)
	require.Equal(t, "proj.internal.handlers.user.HandleUser", edges[0].TargetQN)
}

func TestResolveCalls_FreeCallPrefersLocal(t *testing.T) {
	reg := definer.NewRegistry(slog.Default())
	defineModule(t, reg, "proj.app.main")
	reg.Insert(definer.Descriptor{Node: graphmodel.NewNode(graphmodel.LabelFunction, "proj.app.main.helper", map[string]any{"name": "helper"})})

	files := []*definer.FileDefinitions{
		{ModuleQN: "proj.app.main",
			Calls: []definer.UnresolvedCall{{CallerQN: "proj.app.main.run", Name: "helper", Kind: definer.CallFree}},
		},
	}

	r := New(reg, nil)
	r.BuildIndex(files)
	edges := r.ResolveCalls(files)

	require.Len(t, edges, 1)
	require.Equal(t, "proj.app.main.helper", edges[0].TargetQN)
}

func TestResolveCalls_UnresolvedBuiltinIsDropped(t *testing.T) {
	reg := definer.NewRegistry(slog.Default())
	defineModule(t, reg, "proj.app.main")

	files := []*definer.FileDefinitions{
		{ModuleQN: "proj.app.main",
			Calls: []definer.UnresolvedCall{{CallerQN: "proj.app.main.run", Name: "len", Kind: definer.CallFree}},
		},
	}

	r := New(reg, nil)
	r.BuildIndex(files)
	edges := r.ResolveCalls(files)
	require.Empty(t, edges)
}

func TestResolveInheritance_SameModuleBase(t *testing.T) {
	reg := definer.NewRegistry(slog.Default())
	defineModule(t, reg, "proj.app.shapes")
	reg.Insert(definer.Descriptor{Node: graphmodel.NewNode(graphmodel.LabelClass, "proj.app.shapes.Shape", nil)})
	reg.Insert(definer.Descriptor{Node: graphmodel.NewNode(graphmodel.LabelClass, "proj.app.shapes.Circle", nil)})

	files := []*definer.FileDefinitions{
		{ModuleQN: "proj.app.shapes",
			Bases: []definer.UnresolvedBase{{ClassQN: "proj.app.shapes.Circle", BaseName: "Shape", Order: 0}},
		},
	}

	r := New(reg, nil)
	r.BuildIndex(files)
	edges := r.ResolveInheritance(files)

	require.Len(t, edges, 1)
	require.Equal(t, graphmodel.EdgeInheritsFrom, edges[0].Type)
	require.Equal(t, "proj.app.shapes.Shape", edges[0].TargetQN)
}

func TestDetectCircularDependencies_FindsMutualInheritance(t *testing.T) {
	edges := []graphmodel.Edge{
		graphmodel.NewEdge(graphmodel.EdgeInheritsFrom, graphmodel.LabelClass, "proj.a.A", graphmodel.LabelClass, "proj.b.B", nil),
		graphmodel.NewEdge(graphmodel.EdgeInheritsFrom, graphmodel.LabelClass, "proj.b.B", graphmodel.LabelClass, "proj.a.A", nil),
	}
	circular := DetectCircularDependencies(edges)
	require.Len(t, circular, 1)
	for _, e := range circular {
		require.Equal(t, graphmodel.EdgeCircularDependency, e.Type)
	}
}

func TestDetectCircularDependencies_NoCycleNoEdges(t *testing.T) {
	edges := []graphmodel.Edge{
		graphmodel.NewEdge(graphmodel.EdgeInheritsFrom, graphmodel.LabelClass, "proj.a.A", graphmodel.LabelClass, "proj.b.B", nil),
	}
	require.Empty(t, DetectCircularDependencies(edges))
}

func TestResolveOverrides_FindsParentMethodDepthFirst(t *testing.T) {
	inherits := []graphmodel.Edge{
		graphmodel.NewEdge(graphmodel.EdgeInheritsFrom, graphmodel.LabelClass, "proj.a.Dog", graphmodel.LabelClass, "proj.a.Animal", map[string]any{"order": 0}),
	}
	methods := []graphmodel.Node{
		graphmodel.NewNode(graphmodel.LabelMethod, "proj.a.Animal.speak", map[string]any{"name": "speak", "parent_class": "proj.a.Animal"}),
		graphmodel.NewNode(graphmodel.LabelMethod, "proj.a.Dog.speak", map[string]any{"name": "speak", "parent_class": "proj.a.Dog"}),
	}

	reg := definer.NewRegistry(slog.Default())
	r := New(reg, nil)
	edges := r.ResolveOverrides(inherits, methods)

	require.Len(t, edges, 1)
	require.Equal(t, "proj.a.Dog.speak", edges[0].SourceQN)
	require.Equal(t, "proj.a.Animal.speak", edges[0].TargetQN)
}
