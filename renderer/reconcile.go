package renderer

import "github.com/wenqin/folio"

// RenderReconcile renders the outcome of a full-history replay: the stored
// versus recomputed balance, every trace step, and whatever could not be
// folded.
func RenderReconcile(r *folio.ReconcileResult) string {
	return render("reconcile.md", r)
}
