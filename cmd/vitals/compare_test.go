package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/nao1215/vitals/internal/model"
	"github.com/nao1215/vitals/internal/pagevitals/pagevitalstest"
)

// scoresRun records one 'vitals scores' run against a server whose single
// website has the given pages.
func scoresRun(t *testing.T, ws *testWorkspace, pages ...model.Page) {
	t.Helper()

	server := pagevitalstest.NewServer(t)
	server.AddWebsite(model.Website{ID: "w1", Domain: "shop.example"}, pages...)
	ws.server = server
	if _, err := ws.run(t, "scores", "-o", ws.csvDir, "--db-dir", ws.dbDir); err != nil {
		t.Fatalf("scores run failed: %v", err)
	}
}

func TestCompareCmd(t *testing.T) {
	t.Parallel()

	home := model.Page{ID: "p1", URL: "https://shop.example/", Device: "mobile"}
	cart := model.Page{ID: "p2", URL: "https://shop.example/cart", Device: "mobile"}
	blog := model.Page{ID: "p3", URL: "https://shop.example/blog", Device: "desktop"}

	// newHistory stores three snapshots: home improves and cart regresses
	// between the last two, blog is added in the last one.
	newHistory := func(t *testing.T) *testWorkspace {
		t.Helper()
		ws := newWorkspace(t, nil, apiKeyLine, "PAGEVITALS_WEBSITE_SHOP=w1")

		h, c := home, cart
		h.Latest, c.Latest = scored(0.4, 0.5, 0.6, 0.7), scored(0.9, 0.9, 0.9, 0.9)
		scoresRun(t, ws, h, c)

		h.Latest, c.Latest = scored(0.5, 0.5, 0.6, 0.7), scored(0.9, 0.9, 0.9, 0.9)
		scoresRun(t, ws, h, c)

		b := blog
		b.Latest = scored(1, 1, 1, 1)
		h.Latest, c.Latest = scored(0.8, 0.5, 0.6, 0.7), scored(0.6, 0.9, 0.9, 0.9)
		scoresRun(t, ws, h, c, b)

		// compare reads only the database
		ws.server = nil
		return ws
	}

	t.Run("latest two snapshots", func(t *testing.T) {
		t.Parallel()

		ws := newHistory(t)
		out, err := ws.run(t, "compare", "--db-dir", ws.dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{
			"Comparing snapshot #2",
			"with #3",
			"Improved: 1  Regressed: 1  Unchanged: 0  Added: 1  Removed: 0",
			"https://shop.example/cart",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q:\n%s", want, out)
			}
		}
	})

	t.Run("with snapshot id as JSON", func(t *testing.T) {
		t.Parallel()

		ws := newHistory(t)
		out, err := ws.run(t, "compare", "--db-dir", ws.dbDir, "--with-snapshot-id", "1", "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var c model.Comparison
		if err := json.Unmarshal([]byte(out), &c); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		if c.Previous.ID != 1 || c.Current.ID != 3 {
			t.Errorf("expected #1 vs #3, got #%d vs #%d", c.Previous.ID, c.Current.ID)
		}
		if c.Count(model.ChangeImproved) != 1 || c.Count(model.ChangeRegressed) != 1 || c.Count(model.ChangeAdded) != 1 {
			t.Errorf("unexpected changes %+v", c.Pages)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		t.Parallel()

		ws := newHistory(t)
		out, err := ws.run(t, "compare", "--db-dir", ws.dbDir, "--markdown")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"# Lighthouse Score Comparison", "Regressed: 1", "regressed since snapshot #2"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q:\n%s", want, out)
			}
		}
	})

	t.Run("list", func(t *testing.T) {
		t.Parallel()

		ws := newHistory(t)
		out, err := ws.run(t, "compare", "--db-dir", ws.dbDir, "--list", "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var metas []model.SnapshotMeta
		if err := json.Unmarshal([]byte(out), &metas); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		if len(metas) != 3 || metas[0].ID != 3 || metas[0].Pages != 3 || metas[2].Pages != 2 {
			t.Errorf("unexpected snapshots %+v", metas)
		}
	})

	t.Run("latest snapshot as reference is rejected", func(t *testing.T) {
		t.Parallel()

		ws := newHistory(t)
		if _, err := ws.run(t, "compare", "--db-dir", ws.dbDir, "--with-snapshot-id", "3"); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("json and markdown are mutually exclusive", func(t *testing.T) {
		t.Parallel()

		ws := newWorkspace(t, nil)
		if _, err := ws.run(t, "compare", "--db-dir", ws.dbDir, "--json", "--markdown"); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestCompareCmd_NotEnoughHistory(t *testing.T) {
	t.Parallel()

	t.Run("no database", func(t *testing.T) {
		t.Parallel()

		ws := newWorkspace(t, nil)
		_, err := ws.run(t, "compare", "--db-dir", ws.dbDir)
		if err == nil || !strings.Contains(err.Error(), "vitals scores") {
			t.Fatalf("expected hint to run 'vitals scores', got %v", err)
		}
	})

	t.Run("single snapshot", func(t *testing.T) {
		t.Parallel()

		ws := newWorkspace(t, nil, apiKeyLine, "PAGEVITALS_WEBSITE_SHOP=w1")
		scoresRun(t, ws, model.Page{ID: "p1", URL: "https://shop.example/", Latest: scored(1, 1, 1, 1)})
		ws.server = nil

		_, err := ws.run(t, "compare", "--db-dir", ws.dbDir)
		if err == nil || !strings.Contains(err.Error(), "only one snapshot") {
			t.Fatalf("expected single snapshot error, got %v", err)
		}

		out, err := ws.run(t, "compare", "--db-dir", ws.dbDir, "--list")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "1") {
			t.Errorf("expected snapshot #1 to be listed:\n%s", out)
		}
	})

	t.Run("compare does not need an API key", func(t *testing.T) {
		t.Parallel()

		ws := newWorkspace(t, nil)
		_, err := ws.run(t, "compare", "--db-dir", ws.dbDir, "--list")
		if err == nil {
			t.Fatal("expected missing database error")
		}
		if strings.Contains(err.Error(), "PAGEVITALS_API_KEY") {
			t.Errorf("compare should not require an API key: %v", err)
		}
	})
}
