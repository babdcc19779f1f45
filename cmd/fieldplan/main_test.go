package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testCatalog = `
resource: Task
attributes:
  - name: id
    type: uuid
  - name: title
    type: string
relationships:
  - name: comments
    destination: Comment
    many: true
actions:
  - name: get
---
resource: Comment
attributes:
  - name: body
    type: string
`

func writeCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "catalog.yaml"), []byte(testCatalog), 0644)
	require.NoError(t, err)
	return dir
}

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	old := os.Stdout
	defer func() { os.Stdout = old }()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	done := make(chan struct{})
	var buf bytes.Buffer
	go func() { io.Copy(&buf, r); close(done) }()

	runErr := fn()
	w.Close()
	<-done
	return buf.String(), runErr
}

func TestHelp(t *testing.T) {
	out, err := captureStdout(t, func() error {
		return run([]string{"help", "plan"})
	})
	require.NoError(t, err)
	require.Contains(t, out, "plan FLAGS")
}

func TestUnknownCommand(t *testing.T) {
	require.Error(t, run([]string{"frobnicate"}))
}

func TestValidate(t *testing.T) {
	dir := writeCatalog(t)
	out, err := captureStdout(t, func() error {
		return run([]string{"validate", "-catalog.root", dir})
	})
	require.NoError(t, err)
	require.Contains(t, out, "ok")
}

func TestValidateBadCatalog(t *testing.T) {
	dir := t.TempDir()
	bad := "resource: A\nattributes:\n  - name: x\n    type: Bogus\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(bad), 0644))

	err := run([]string{"validate", "-catalog.root", dir})
	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown type "Bogus"`)
}

func TestGenerate(t *testing.T) {
	dir := writeCatalog(t)
	outFile := filepath.Join(t.TempDir(), "schema.ts")

	err := run([]string{"generate", "-catalog.root", dir, "-root", "Task", "-out", outFile})
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	require.Contains(t, string(data), "export type TaskSchema = {")
	require.Contains(t, string(data), "export type CommentSchema = {")
}

func TestPlan(t *testing.T) {
	dir := writeCatalog(t)
	out, err := captureStdout(t, func() error {
		return run([]string{
			"plan", "-catalog.root", dir,
			"-resource", "Task", "-action", "get",
			"-selection", `["id", {"comments": ["body"]}]`,
		})
	})
	require.NoError(t, err)
	require.Contains(t, out, `"select":["id"]`)
	require.Contains(t, out, `"field":"comments"`)
}

func TestPlanGraphQLFormat(t *testing.T) {
	dir := writeCatalog(t)
	out, err := captureStdout(t, func() error {
		return run([]string{
			"plan", "-catalog.root", dir,
			"-resource", "Task", "-action", "get",
			"-format", "graphql",
			"-selection", `{ id title }`,
		})
	})
	require.NoError(t, err)
	require.Contains(t, out, `"select":["id","title"]`)
}
