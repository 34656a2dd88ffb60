package walkthrough

import (
	"testing"

	"codewalk/internal/gh"
)

func TestBuildEdgesRelativeJS(t *testing.T) {
	files := []gh.File{
		{Path: "src/index.ts", Content: "import { api } from './api'\nimport fs from 'fs'\n"},
		{Path: "src/api.ts", Content: "export const api = {}\n"},
	}
	edges := BuildEdges(files)
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %+v", edges)
	}
	e := edges[0]
	if e.From != "src/index.ts" || e.To != "src/api.ts" || e.Kind != "import" {
		t.Fatalf("unexpected edge %+v", e)
	}
}

func TestBuildEdgesGoImports(t *testing.T) {
	files := []gh.File{
		{Path: "cmd/api/main.go", Content: "package main\n\nimport (\n\t\"fmt\"\n\n\t\"example/internal/server\"\n)\n\nfunc main() { fmt.Println(server.New()) }\n"},
		{Path: "internal/server/server.go", Content: "package server\n\nfunc New() string { return \"{not an import}\" }\n"},
	}
	edges := BuildEdges(files)
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %+v", edges)
	}
	if edges[0].To != "internal/server/server.go" {
		t.Fatalf("unexpected target %q", edges[0].To)
	}
}

func TestBuildEdgesPython(t *testing.T) {
	files := []gh.File{
		{Path: "app/main.py", Content: "from app.models import User\nimport os\n"},
		{Path: "app/models.py", Content: "class User: pass\n"},
	}
	edges := BuildEdges(files)
	if len(edges) != 1 || edges[0].To != "app/models.py" {
		t.Fatalf("expected edge to app/models.py, got %+v", edges)
	}
}

func TestBuildEdgesNoSelfOrDuplicates(t *testing.T) {
	files := []gh.File{
		{Path: "a.js", Content: "require('./a')\nrequire('./b')\nrequire('./b')\n"},
		{Path: "b.js", Content: ""},
	}
	edges := BuildEdges(files)
	if len(edges) != 1 {
		t.Fatalf("expected a single deduplicated edge, got %+v", edges)
	}
}

func TestBuildEdgesUnresolvedDropped(t *testing.T) {
	files := []gh.File{
		{Path: "main.go", Content: "package main\nimport \"github.com/stretchr/testify/require\"\n"},
	}
	if edges := BuildEdges(files); len(edges) != 0 {
		t.Fatalf("expected no edges for external-only imports, got %+v", edges)
	}
}
