package nutrilog

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// isolated points the CLI at a fresh database and a config file that does not exist.
func isolated(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	return []string{
		"--db", filepath.Join(dir, "nutrilog.db"),
		"--config", filepath.Join(dir, "config.yaml"),
		"--env-file", "",
	}
}

// resetFlags puts every flag back to its default. Flag variables are package
// globals and would otherwise leak between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(args ...string) (string, error) {
	resetFlags(rootCmd)
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func run(t *testing.T, base []string, args ...string) string {
	t.Helper()
	out, err := execute(append(append([]string{}, base...), args...)...)
	if err != nil {
		t.Fatalf("%s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestRootHelp(t *testing.T) {
	out, err := execute("--help")
	if err != nil {
		t.Fatalf("execute root help: %v", err)
	}
	if out == "" {
		t.Fatalf("expected help output")
	}
}

func TestInitCommandIdempotent(t *testing.T) {
	base := isolated(t)
	for i := 0; i < 2; i++ {
		out := run(t, base, "init")
		if !strings.Contains(out, "Initialized nutrilog database") {
			t.Fatalf("init run %d: unexpected output %q", i+1, out)
		}
	}
}

func TestMealAddShowsInDayAndWeek(t *testing.T) {
	base := isolated(t)
	out := run(t, base, "meal", "add", "--name", "Oats", "--calories", "450", "--protein", "20",
		"--carbs", "60", "--fat", "12", "--fiber", "9", "--date", "2026-10-14", "--time", "08:15")
	if !strings.Contains(out, "Added meal 1") {
		t.Fatalf("expected added meal id, got %q", out)
	}

	out = run(t, base, "meal", "list", "--date", "2026-10-14")
	if !strings.Contains(out, "2026-10-14 08:15\tbreakfast\tOats\t450") {
		t.Fatalf("expected meal in list, got %q", out)
	}

	out = run(t, base, "day", "--date", "2026-10-14")
	for _, want := range []string{"Date: 2026-10-14", "Meals: 1", "Calories: 450", "Fiber: 9.0g", "08:15\tbreakfast\tOats"} {
		if !strings.Contains(out, want) {
			t.Fatalf("day output missing %q:\n%s", want, out)
		}
	}

	out = run(t, base, "week", "--date", "2026-10-17")
	if !strings.Contains(out, "Week of 2026-10-12") {
		t.Fatalf("expected monday-anchored week, got %q", out)
	}
	if !strings.Contains(out, "2026-10-14\tWed\t1\t450") {
		t.Fatalf("expected wednesday totals, got %q", out)
	}
	if !strings.Contains(out, "2026-10-18\tSun\t0\t0") {
		t.Fatalf("expected quiet sunday row, got %q", out)
	}
	if !strings.Contains(out, "Total: 450 kcal") {
		t.Fatalf("expected week total, got %q", out)
	}

	out = run(t, base, "day", "--date", "2026-10-15")
	if !strings.Contains(out, "No meals logged") {
		t.Fatalf("expected empty day, got %q", out)
	}
}

func TestMealEditMovesMealAcrossWeeks(t *testing.T) {
	base := isolated(t)
	run(t, base, "meal", "add", "--name", "Soup", "--calories", "300", "--date", "2026-10-18", "--time", "19:00")

	out := run(t, base, "meal", "edit", "1", "--date", "2026-10-19")
	if !strings.Contains(out, "Updated meal 1") {
		t.Fatalf("unexpected edit output %q", out)
	}

	out = run(t, base, "meal", "show", "1")
	if !strings.Contains(out, "Date: 2026-10-19 19:00") {
		t.Fatalf("expected meal moved and time kept, got %q", out)
	}
	out = run(t, base, "week", "--date", "2026-10-18")
	if !strings.Contains(out, "Total: 0 kcal") {
		t.Fatalf("expected old week emptied, got %q", out)
	}
	out = run(t, base, "week", "--date", "2026-10-19")
	if !strings.Contains(out, "2026-10-19\tMon\t1\t300") {
		t.Fatalf("expected meal in new week, got %q", out)
	}
}

func TestMealDelete(t *testing.T) {
	base := isolated(t)
	run(t, base, "meal", "add", "--name", "Toast", "--calories", "200", "--date", "2026-10-13", "--time", "07:00")

	out := run(t, base, "meal", "delete", "1")
	if !strings.Contains(out, "Deleted meal 1") {
		t.Fatalf("unexpected delete output %q", out)
	}
	if _, err := execute(append(base, "meal", "show", "1")...); err == nil {
		t.Fatalf("expected deleted meal to be missing")
	}
	if _, err := execute(append(base, "meal", "delete", "1")...); err == nil {
		t.Fatalf("expected second delete to fail")
	}
}

func TestEvaluateStoresResult(t *testing.T) {
	base := isolated(t)
	if _, err := execute(append(base, "evaluate", "--date", "2026-10-14")...); err == nil {
		t.Fatalf("expected evaluating an empty day to fail")
	}

	run(t, base, "goal", "set", "--calories", "2000", "--protein", "150", "--carbs", "200", "--fat", "70", "--effective-date", "2026-01-01")
	run(t, base, "meal", "add", "--name", "Pasta", "--calories", "900", "--protein", "30",
		"--carbs", "120", "--fat", "25", "--sugar", "60", "--date", "2026-10-14", "--time", "13:00")

	out := run(t, base, "evaluate", "--date", "2026-10-14")
	if !strings.Contains(out, "2026-10-14:") || !strings.Contains(out, "calories under: 900kcal of 2000kcal") {
		t.Fatalf("unexpected evaluation %q", out)
	}
	if !strings.Contains(out, "sugar high: 60g over a 50g limit") {
		t.Fatalf("expected default sugar threshold, got %q", out)
	}

	out = run(t, base, "day", "--date", "2026-10-14")
	if !strings.Contains(out, "Evaluation:\n2026-10-14:") {
		t.Fatalf("expected stored evaluation on day view, got %q", out)
	}
}

func TestGoalShowAndHistory(t *testing.T) {
	base := isolated(t)
	out := run(t, base, "goal", "show", "--date", "2026-10-14")
	if !strings.Contains(out, "No goal configured") {
		t.Fatalf("expected no goal, got %q", out)
	}
	run(t, base, "goal", "set", "--calories", "2100", "--protein", "140", "--carbs", "220", "--fat", "70", "--fiber", "35", "--effective-date", "2026-10-01")

	out = run(t, base, "goal", "show", "--date", "2026-10-14")
	for _, want := range []string{"Effective: 2026-10-01", "Calories: 2100", "Fiber: 35.0g"} {
		if !strings.Contains(out, want) {
			t.Fatalf("goal output missing %q:\n%s", want, out)
		}
	}
	out = run(t, base, "goal", "history")
	if !strings.Contains(out, "2026-10-01\t2100\t140.0") {
		t.Fatalf("unexpected history %q", out)
	}
}

func TestConfigSetAndGet(t *testing.T) {
	base := isolated(t)
	if _, err := execute(append(base, "config", "set")...); err == nil {
		t.Fatalf("expected config set without flags to fail")
	}
	out := run(t, base, "config", "set", "--max-sugar", "40", "--calorie-tolerance", "0.05")
	if !strings.Contains(out, "Updated 2 config value(s)") {
		t.Fatalf("unexpected config set output %q", out)
	}
	out = run(t, base, "config", "get")
	for _, want := range []string{"max_sugar_g\t40\n", "calorie_tolerance\t0.05\n", "min_fiber_g\t25 (default)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("config output missing %q:\n%s", want, out)
		}
	}
}

func TestCategoryAddAndList(t *testing.T) {
	base := isolated(t)
	out := run(t, base, "category", "add", "supper")
	if !strings.HasPrefix(out, `Added category "supper"`) {
		t.Fatalf("unexpected add output %q", out)
	}
	run(t, base, "meal", "add", "--name", "Stew", "--calories", "610", "--category", "supper", "--date", "2026-10-14", "--time", "20:00")
	run(t, base, "meal", "add", "--name", "Toast", "--calories", "250", "--date", "2026-10-13", "--time", "08:00")

	out = run(t, base, "category", "list")
	for _, want := range []string{
		"supper\tno\t-\t1\t610\t2026-10-14\n",
		"breakfast\tyes\t04:00-11:00\t1\t250\t2026-10-13\n",
		"lunch\tyes\t11:00-16:00\t0\t0\t-\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("category list missing %q:\n%s", want, out)
		}
	}

	out = run(t, base, "category", "list", "--since", "2026-10-14")
	if !strings.Contains(out, "breakfast\tyes\t04:00-11:00\t0\t0\t-\n") {
		t.Fatalf("expected breakfast uncounted since 10-14:\n%s", out)
	}
}

func TestChartEndsToday(t *testing.T) {
	base := isolated(t)
	today := time.Now().Format("2006-01-02")
	run(t, base, "meal", "add", "--name", "Rice", "--calories", "640", "--date", today, "--time", "00:30")

	out := run(t, base, "chart", "--days", "7")
	if !strings.Contains(out, "to "+today+" (7 days)") {
		t.Fatalf("expected a seven day window ending today, got %q", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	last := lines[len(lines)-1]
	if !strings.HasPrefix(last, today) || !strings.Contains(last, "640\t#") {
		t.Fatalf("expected today's bar last, got %q", last)
	}
	if len(lines) != 8 {
		t.Fatalf("expected header plus seven bars, got %d lines", len(lines))
	}
}

func TestParseDateTimeOrNow(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	got, err := parseDateTimeOrNow("2026-10-19", "08:00", loc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Location() != loc || got.Hour() != 8 || got.Day() != 19 {
		t.Fatalf("unexpected time %v", got)
	}
	if _, err := parseDateTimeOrNow("", "08:00", loc); err == nil {
		t.Fatalf("expected time without date to fail")
	}
	if _, err := parseDateTimeOrNow("19-10-2026", "", loc); err == nil {
		t.Fatalf("expected malformed date to fail")
	}
}
