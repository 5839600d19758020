package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"plate-go/internal/plate"
)

const replHelp = `Commands:
  capture              take a photo with the camera and estimate it
  search TEXT          estimate a food description
  servings N           set servings of the pending draft (0.25 to 5)
  rename NAME          correct the name of the pending draft
  confirm MEAL         log the draft as Breakfast, Lunch, Dinner or Snack
  discard              drop the pending draft
  edit ID              open a logged entry for editing
  delete               delete the entry being edited
  water AMOUNT|reset   log a preset amount of water, or reset the counter
  steps N              record the step count
  status               show today's totals
  log                  list today's entries
  export               export today's report
  quit                 end the session`

// repl runs an interactive tracking session over a line-oriented stream.
// Errors are printed and the session continues.
type repl struct {
	tracker *plate.Tracker
	reports *plate.ReportService
	out     io.Writer
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(r.out, "plate session. Type 'help' for commands.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			break
		}
		quit, err := r.exec(ctx, scanner.Text())
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return scanner.Err()
}

func (r *repl) exec(ctx context.Context, line string) (bool, error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
		return false, nil
	case "help", "?":
		fmt.Fprintln(r.out, replHelp)
	case "quit", "exit":
		r.tracker.StopCapture()
		return true, nil
	case "capture":
		if err := r.tracker.StartCapture(ctx, plate.ModeCamera); err != nil {
			return false, err
		}
		d, err := r.tracker.CaptureFrame(ctx)
		if err != nil {
			r.tracker.StopCapture()
			return false, err
		}
		r.printDraft(d)
	case "search":
		d, err := r.tracker.SubmitText(ctx, arg)
		if err != nil {
			return false, err
		}
		r.printDraft(d)
	case "servings":
		n, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return false, fmt.Errorf("%w: servings must be a number", plate.ErrInvalidInput)
		}
		d, err := r.tracker.SetServings(n)
		if err != nil {
			return false, err
		}
		r.printDraft(d)
	case "rename":
		d, err := r.tracker.Revise(plate.DraftRevision{Name: &arg})
		if err != nil {
			return false, err
		}
		r.printDraft(d)
	case "confirm":
		mt, err := plate.ParseMealType(arg)
		if err != nil {
			return false, err
		}
		e, err := r.tracker.Confirm(mt)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(r.out, "Logged %s (%d kcal) as %s\n", e.Name, e.Calories, e.MealType)
	case "discard":
		if err := r.tracker.Discard(); err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, "Draft discarded.")
	case "edit":
		d, err := r.tracker.EditEntry(arg)
		if err != nil {
			return false, err
		}
		r.printDraft(d)
	case "delete":
		e, err := r.tracker.Delete()
		if err != nil {
			return false, err
		}
		fmt.Fprintf(r.out, "Deleted %s\n", e.Name)
	case "water":
		if strings.EqualFold(arg, "reset") {
			h := r.tracker.ResetWater()
			fmt.Fprintf(r.out, "Water: %s / %s\n", h.Format(h.Current), h.Format(h.Goal))
			return false, nil
		}
		n, err := strconv.Atoi(arg)
		if err != nil {
			return false, fmt.Errorf("%w: water amount must be a whole number", plate.ErrInvalidInput)
		}
		h, err := r.tracker.LogWater(n)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(r.out, "Water: %s / %s\n", h.Format(h.Current), h.Format(h.Goal))
	case "steps":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return false, fmt.Errorf("%w: steps must be a whole number", plate.ErrInvalidInput)
		}
		if err := r.tracker.SetSteps(n); err != nil {
			return false, err
		}
		fmt.Fprintf(r.out, "Steps: %d\n", n)
	case "status":
		r.printSummary(r.tracker.State())
	case "log":
		r.printEntries(r.tracker.State().Entries)
	case "export":
		rec, err := r.reports.Export(ctx, r.tracker.Report())
		if err != nil {
			return false, err
		}
		fmt.Fprintf(r.out, "Exported %s (%d entries) to %s\n", rec.Date, rec.EntryCount, rec.ArchiveKey)
	default:
		return false, fmt.Errorf("unknown command %q (type 'help')", cmd)
	}
	return false, nil
}

func (r *repl) printDraft(d *plate.Draft) {
	entry := fmt.Sprintf("%s x%g", d.Name, d.Servings)
	if d.EditingID != "" {
		entry += " (editing)"
	}
	fmt.Fprintf(r.out, "Draft: %s  %.0f kcal  P %.0fg  C %.0fg  F %.0fg per serving\n",
		entry, d.Calories, d.Protein, d.Carbs, d.Fat)
}

func (r *repl) printSummary(s plate.State) {
	sum := plate.Summarize(s)
	fmt.Fprintf(r.out, "Calories: %d / %d (%.0f%%), %d remaining\n",
		sum.TotalCalories, sum.CalorieGoal, sum.CalorieProgress*100, sum.RemainingCalories)
	fmt.Fprintf(r.out, "Macros:   P %dg  C %dg  F %dg\n", sum.Macros.Protein, sum.Macros.Carbs, sum.Macros.Fat)
	for _, m := range sum.Meals {
		fmt.Fprintf(r.out, "  %-9s %d kcal\n", m.MealType, m.Calories)
	}
	fmt.Fprintf(r.out, "Water:    %s / %s\n", s.Hydration.Format(sum.Water), s.Hydration.Format(sum.WaterGoal))
	fmt.Fprintf(r.out, "Steps:    %d / %d\n", sum.Steps, sum.StepGoal)
}

func (r *repl) printEntries(entries []plate.FoodEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(r.out, "No entries logged.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(r.out, "%s  %-9s %-24s %5d kcal\n", e.ID, e.MealType, e.Name, e.Calories)
	}
}
