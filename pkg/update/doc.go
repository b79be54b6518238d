/*
Package update writes conversions to disk without ever exposing a partial file.

	            +-------------+
	            |   Updater   |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	| InPlace  | |  ToFile  | | ToWriter |
	| tmp+swap | |  direct  | |  stream  |
	+----------+ +----------+ +----------+

🎯 Purpose:
- Run a text.TextReplacer with a file as source
- Keep the original intact on every failure
- Snapshot the original to <path>.bak when asked

🔄 In-place flow:
1. Open the original read-only, remember its mode
2. Convert into .~<name>.<random>.tmp in the same directory
3. Sync and close the temp file, remove it on any failure
4. Optionally write <path>.bak, itself through a temp file
5. Rename the temp file over the original, sync the directory

⚡ Failures:
- errdefs.ErrSourceRead / errdefs.ErrSinkWrite: temp removed, original untouched
- errdefs.ErrBackup: temp removed, original and any older backup untouched
- errdefs.ErrRename: original untouched, temp kept and named in the error details

ToFile writes straight to its destination and gives no atomicity
guarantee, since the source is never at risk. ToWriter is the stdout mode.

🔍 Example:

	u := update.New(replacer, update.Options{})
	res, err := u.InPlace(ctx, "thesis.tex", true)
*/
package update
