package resolve

import (
	"os"
	"path/filepath"
	"testing"
)

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestResolveRelativeExactFile(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "src", "util.ts"), "export const x = 1")
	mustWriteFile(t, filepath.Join(root, "src", "main.ts"), "")

	r := New(root)
	result := r.Resolve(filepath.Join(root, "src", "main.ts"), "./util.ts")
	if result.Resolved != filepath.Join(root, "src", "util.ts") {
		t.Fatalf("Resolved = %q, want util.ts", result.Resolved)
	}
}

func TestResolveRelativeAppendsExtension(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "src", "util.tsx"), "")
	mustWriteFile(t, filepath.Join(root, "src", "main.ts"), "")

	r := New(root)
	result := r.Resolve(filepath.Join(root, "src", "main.ts"), "./util")
	if result.Resolved != filepath.Join(root, "src", "util.tsx") {
		t.Fatalf("Resolved = %q, want util.tsx", result.Resolved)
	}
}

func TestResolveRelativeIndexFile(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "src", "widgets", "index.ts"), "")
	mustWriteFile(t, filepath.Join(root, "src", "main.ts"), "")

	r := New(root)
	result := r.Resolve(filepath.Join(root, "src", "main.ts"), "./widgets")
	if result.Resolved != filepath.Join(root, "src", "widgets", "index.ts") {
		t.Fatalf("Resolved = %q, want widgets/index.ts", result.Resolved)
	}
}

func TestResolveRelativeRejectsOutsideProjectRoot(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	mustWriteFile(t, filepath.Join(outside, "leak.ts"), "")
	mustWriteFile(t, filepath.Join(root, "src", "main.ts"), "")

	rel, err := filepath.Rel(filepath.Join(root, "src"), filepath.Join(outside, "leak.ts"))
	if err != nil {
		t.Fatalf("Rel: %v", err)
	}

	r := New(root)
	result := r.Resolve(filepath.Join(root, "src", "main.ts"), "./"+rel)
	if result.Ok() {
		t.Errorf("Resolved = %q, want unresolved (target escapes project root)", result.Resolved)
	}
}

func TestResolveRelativeRejectsDeclarationFile(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "src", "types.d.ts"), "")
	mustWriteFile(t, filepath.Join(root, "src", "main.ts"), "")

	r := New(root)
	result := r.Resolve(filepath.Join(root, "src", "main.ts"), "./types.d.ts")
	if result.Ok() {
		t.Errorf("Resolved = %q, want unresolved (.d.ts is rejected)", result.Resolved)
	}
}

func TestResolveAliasViaTSConfigPaths(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "tsconfig.json"), `{
		"compilerOptions": { "paths": { "@shared/*": ["src/shared/*"] } }
	}`)
	mustWriteFile(t, filepath.Join(root, "src", "shared", "logger.ts"), "")
	mustWriteFile(t, filepath.Join(root, "src", "app", "main.ts"), "")

	r := New(root)
	result := r.Resolve(filepath.Join(root, "src", "app", "main.ts"), "@shared/logger")
	if result.Resolved != filepath.Join(root, "src", "shared", "logger.ts") {
		t.Fatalf("Resolved = %q, want shared/logger.ts", result.Resolved)
	}
}

func TestTsconfigOverrideReplacesDiscoveryWalk(t *testing.T) {
	root := t.TempDir()
	// The discoverable tsconfig.json at root has no alias; the override file elsewhere does.
	mustWriteFile(t, filepath.Join(root, "tsconfig.json"), `{"compilerOptions": {"paths": {}}}`)
	mustWriteFile(t, filepath.Join(root, "alt.tsconfig.json"), `{
		"compilerOptions": { "paths": { "@shared/*": ["src/shared/*"] } }
	}`)
	mustWriteFile(t, filepath.Join(root, "src", "shared", "logger.ts"), "")
	mustWriteFile(t, filepath.Join(root, "src", "app", "main.ts"), "")

	r := New(root)
	r.TsconfigOverride = filepath.Join(root, "alt.tsconfig.json")
	result := r.Resolve(filepath.Join(root, "src", "app", "main.ts"), "@shared/logger")
	if result.Resolved != filepath.Join(root, "src", "shared", "logger.ts") {
		t.Fatalf("Resolved = %q, want shared/logger.ts via the override file's alias", result.Resolved)
	}
}

func TestResolveAliasUnresolvedAttemptWarns(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "tsconfig.json"), `{
		"compilerOptions": { "paths": { "@shared/*": ["src/shared/*"] } }
	}`)
	mustWriteFile(t, filepath.Join(root, "src", "app", "main.ts"), "")

	r := New(root)
	result := r.Resolve(filepath.Join(root, "src", "app", "main.ts"), "@shared/missing")
	if result.Ok() {
		t.Fatalf("Resolved = %q, want unresolved", result.Resolved)
	}
	if !result.ShouldWarn {
		t.Errorf("ShouldWarn = false, want true (an alias pattern matched but failed)")
	}
}

func TestResolveBaseURLFallback(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "tsconfig.json"), `{
		"compilerOptions": { "baseUrl": "src" }
	}`)
	mustWriteFile(t, filepath.Join(root, "src", "components", "Button.ts"), "")
	mustWriteFile(t, filepath.Join(root, "src", "app", "main.ts"), "")

	r := New(root)
	result := r.Resolve(filepath.Join(root, "src", "app", "main.ts"), "components/Button")
	if result.Resolved != filepath.Join(root, "src", "components", "Button.ts") {
		t.Fatalf("Resolved = %q, want components/Button.ts", result.Resolved)
	}
}

func TestResolveBareSpecifierWithoutWorkspaceMatchIsUnresolvedWithoutWarning(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "src", "main.ts"), "")

	r := New(root)
	result := r.Resolve(filepath.Join(root, "src", "main.ts"), "lodash")
	if result.Ok() {
		t.Fatalf("Resolved = %q, want unresolved", result.Resolved)
	}
	if result.ShouldWarn {
		t.Errorf("ShouldWarn = true, want false (a plain node_modules package is not an alias/workspace attempt)")
	}
}

func TestResolveWorkspacePackageMainField(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "package.json"), `{"workspaces": ["packages/*"]}`)
	mustWriteFile(t, filepath.Join(root, "packages", "core", "package.json"), `{"name": "@acme/core", "main": "index.ts"}`)
	mustWriteFile(t, filepath.Join(root, "packages", "core", "index.ts"), "")
	mustWriteFile(t, filepath.Join(root, "apps", "web", "main.ts"), "")

	r := New(root)
	result := r.Resolve(filepath.Join(root, "apps", "web", "main.ts"), "@acme/core")
	if result.Resolved != filepath.Join(root, "packages", "core", "index.ts") {
		t.Fatalf("Resolved = %q, want packages/core/index.ts", result.Resolved)
	}
}

func TestResolveWorkspacePackageExportsMap(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "package.json"), `{"workspaces": ["packages/*"]}`)
	mustWriteFile(t, filepath.Join(root, "packages", "core", "package.json"), `{
		"name": "@acme/core",
		"exports": { "./logger": { "import": "./src/logger.ts" } }
	}`)
	mustWriteFile(t, filepath.Join(root, "packages", "core", "src", "logger.ts"), "")
	mustWriteFile(t, filepath.Join(root, "apps", "web", "main.ts"), "")

	r := New(root)
	result := r.Resolve(filepath.Join(root, "apps", "web", "main.ts"), "@acme/core/logger")
	if result.Resolved != filepath.Join(root, "packages", "core", "src", "logger.ts") {
		t.Fatalf("Resolved = %q, want packages/core/src/logger.ts", result.Resolved)
	}
}

func TestResolveTSConfigExtendsMergesPaths(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "tsconfig.base.json"), `{
		"compilerOptions": { "paths": { "@base/*": ["src/base/*"] } }
	}`)
	mustWriteFile(t, filepath.Join(root, "tsconfig.json"), `{
		"extends": "./tsconfig.base.json",
		"compilerOptions": { "paths": { "@shared/*": ["src/shared/*"] } }
	}`)
	mustWriteFile(t, filepath.Join(root, "src", "base", "a.ts"), "")
	mustWriteFile(t, filepath.Join(root, "src", "shared", "b.ts"), "")
	mustWriteFile(t, filepath.Join(root, "src", "app", "main.ts"), "")

	r := New(root)
	fromFile := filepath.Join(root, "src", "app", "main.ts")
	if result := r.Resolve(fromFile, "@base/a"); result.Resolved != filepath.Join(root, "src", "base", "a.ts") {
		t.Errorf("@base/a Resolved = %q, want src/base/a.ts", result.Resolved)
	}
	if result := r.Resolve(fromFile, "@shared/b"); result.Resolved != filepath.Join(root, "src", "shared", "b.ts") {
		t.Errorf("@shared/b Resolved = %q, want src/shared/b.ts", result.Resolved)
	}
}

func TestResolveTSConfigToleratesCommentsAndTrailingCommas(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "tsconfig.json"), `{
		// line comment
		"compilerOptions": {
			/* block comment */
			"paths": {
				"@shared/*": ["src/shared/*"],
			},
		},
	}`)
	mustWriteFile(t, filepath.Join(root, "src", "shared", "logger.ts"), "")
	mustWriteFile(t, filepath.Join(root, "src", "app", "main.ts"), "")

	r := New(root)
	result := r.Resolve(filepath.Join(root, "src", "app", "main.ts"), "@shared/logger")
	if result.Resolved != filepath.Join(root, "src", "shared", "logger.ts") {
		t.Fatalf("Resolved = %q, want src/shared/logger.ts", result.Resolved)
	}
}

func TestResolveRootDirsRetry(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "tsconfig.json"), `{
		"compilerOptions": { "rootDirs": ["src/generated", "src/handwritten"] }
	}`)
	mustWriteFile(t, filepath.Join(root, "src", "handwritten", "widgets", "button.ts"), "")
	mustWriteFile(t, filepath.Join(root, "src", "generated", "widgets", "main.ts"), "")

	r := New(root)
	fromFile := filepath.Join(root, "src", "generated", "widgets", "main.ts")
	result := r.Resolve(fromFile, "./button")
	if result.Resolved != filepath.Join(root, "src", "handwritten", "widgets", "button.ts") {
		t.Fatalf("Resolved = %q, want handwritten/widgets/button.ts", result.Resolved)
	}
}
