package ingest

import (
	"testing"

	"github.com/kraklabs/graphupdater/pkg/discovery"
	"github.com/kraklabs/graphupdater/pkg/graphmodel"
	"github.com/stretchr/testify/require"
)

func TestBuildContainment_FormsSinglePathForest(t *testing.T) {
	files := []discovery.File{
		{RelPath: "src/pkg/a.py", Language: "python", Size: 10},
		{RelPath: "src/pkg/b.py", Language: "python", Size: 20},
		{RelPath: "main.py", Language: "python", Size: 5},
	}

	nodes, edges := buildContainment("demo", files)

	var projectNodes, folderNodes, fileNodes int
	for _, n := range nodes {
		switch n.Label {
		case graphmodel.LabelProject:
			projectNodes++
		case graphmodel.LabelFolder:
			folderNodes++
		case graphmodel.LabelFile:
			fileNodes++
		}
	}
	require.Equal(t, 1, projectNodes)
	require.Equal(t, 2, folderNodes) // "src" and "src/pkg"
	require.Equal(t, 3, fileNodes)

	containsFolder, containsFile, containsModule := 0, 0, 0
	for _, e := range edges {
		switch e.Type {
		case graphmodel.EdgeContainsFolder:
			containsFolder++
		case graphmodel.EdgeContainsFile:
			containsFile++
		case graphmodel.EdgeContainsModule:
			containsModule++
		}
	}
	require.Equal(t, 2, containsFolder)
	require.Equal(t, 3, containsFile)
	require.Equal(t, 3, containsModule)

	// every file has exactly one CONTAINS_FILE edge targeting it
	targets := make(map[string]int)
	for _, e := range edges {
		if e.Type == graphmodel.EdgeContainsFile {
			targets[e.TargetQN]++
		}
	}
	for _, count := range targets {
		require.Equal(t, 1, count)
	}
}

func TestBuildContainment_NoDuplicateFolderNodesAcrossSiblingFiles(t *testing.T) {
	files := []discovery.File{
		{RelPath: "src/a.go", Language: "go", Size: 1},
		{RelPath: "src/b.go", Language: "go", Size: 1},
	}
	nodes, _ := buildContainment("demo", files)

	folderCount := 0
	for _, n := range nodes {
		if n.Label == graphmodel.LabelFolder {
			folderCount++
		}
	}
	require.Equal(t, 1, folderCount)
}
