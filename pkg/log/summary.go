package log

import (
	"strconv"

	"github.com/pterm/pterm"
)

// 📊 Summary totals the file operations of a batch
type Summary struct {
	Files        int
	Modified     int
	Unchanged    int
	Failed       int
	Replacements int

	rows []FileOperation
}

// Summarize counts ops by outcome
func Summarize(ops []FileOperation) Summary {
	s := Summary{rows: ops}
	for _, op := range ops {
		s.Files++
		switch {
		case op.Err != nil:
			s.Failed++
		case op.IsModified:
			s.Modified++
		default:
			s.Unchanged++
		}
		s.Replacements += op.Replacements
	}
	return s
}

// Table renders one row per file followed by a totals row
func (s Summary) Table() (string, error) {
	data := pterm.TableData{{"File", "Status", "Replacements", "Backup"}}
	for _, op := range s.rows {
		status := op.Status
		if op.Err != nil {
			status = "failed"
		}
		backup := ""
		if op.HasBackup {
			backup = "yes"
		}
		data = append(data, []string{op.Path, status, strconv.Itoa(op.Replacements), backup})
	}
	data = append(data, []string{
		"total " + strconv.Itoa(s.Files),
		strconv.Itoa(s.Modified) + " modified, " + strconv.Itoa(s.Failed) + " failed",
		strconv.Itoa(s.Replacements),
		"",
	})

	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}
