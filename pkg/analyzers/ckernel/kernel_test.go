package ckernel

import (
	"testing"

	"github.com/kraklabs/graphupdater/pkg/graphmodel"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_SyscallAndExport(t *testing.T) {
	src := []byte(`
SYSCALL_DEFINE1(my_syscall, int, fd)
{
	return 0;
}
EXPORT_SYMBOL(my_syscall);
`)
	nodes, edges := Analyze("proj.m", src, func(string) (string, bool) { return "", false })

	var sawSyscall, sawExport bool
	for _, n := range nodes {
		if n.Label == graphmodel.LabelSyscall {
			sawSyscall = true
		}
		if n.Label == graphmodel.LabelKernelExport {
			sawExport = true
		}
	}
	require.True(t, sawSyscall)
	require.True(t, sawExport)

	var sawDefines int
	for _, e := range edges {
		if e.Type == graphmodel.EdgeDefines {
			sawDefines++
		}
	}
	require.Equal(t, 2, sawDefines)
}

func TestAnalyze_LockUnlockPairing(t *testing.T) {
	src := []byte(`
void f(void) {
	spin_lock(&my_lock);
	spin_unlock(&my_lock);
}
`)
	_, edges := Analyze("proj.m", src, func(string) (string, bool) { return "", false })

	var sawLock, sawUnlock bool
	for _, e := range edges {
		if e.Type == graphmodel.EdgeLocks {
			sawLock = true
		}
		if e.Type == graphmodel.EdgeUnlocks {
			sawUnlock = true
		}
	}
	require.True(t, sawLock)
	require.True(t, sawUnlock)
}

func TestAnalyze_ModuleInitMarksFunction(t *testing.T) {
	src := []byte(`module_init(my_init_fn);`)
	nodes, _ := Analyze("proj.m", src, func(name string) (string, bool) {
		if name == "my_init_fn" {
			return graphmodel.QN("proj.m", name), true
		}
		return "", false
	})
	require.Len(t, nodes, 1)
	require.Equal(t, "init", nodes[0].Properties["module_entry"])
}

func TestExtractMacroDefsAndUsages(t *testing.T) {
	src := []byte(`
#define MAX_SIZE 128
int buf[MAX_SIZE];
`)
	nodes, defs := ExtractMacroDefs("proj.m", src)
	require.Len(t, nodes, 1)
	require.Len(t, defs, 1)
	require.Equal(t, "MAX_SIZE", defs[0].Name)

	usages := ExtractMacroUsages(src)
	require.Contains(t, usages, "MAX_SIZE")
	require.Contains(t, usages, "buf")
	require.Contains(t, usages, "int")
}

func TestResolveExpandsTo_MatchesKnownMacro(t *testing.T) {
	table := map[string]string{"MAX_SIZE": graphmodel.QN("proj.m", "MAX_SIZE")}
	edges := ResolveExpandsTo("proj.m", []string{"MAX_SIZE", "buf"}, table)
	require.Len(t, edges, 1)
	require.Equal(t, graphmodel.EdgeExpandsTo, edges[0].Type)
}
