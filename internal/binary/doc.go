// Package binary implements the centy-daemon installation pipeline:
// resolve a release version, download the matching archive and its
// checksum manifest, verify integrity, extract the daemon binary, and
// install it to ~/.centy/bin.
//
// # Pipeline
//
// A single Manager.Install call runs six stages strictly in order:
//
//	Detect -> Resolve -> Download -> Verify -> Extract -> Install
//
// Each stage consumes the prior stage's output. A failure at any stage
// aborts the run; no file is written to the install directory until
// verification and extraction have both succeeded, and the final write
// is an atomic temp-file-then-rename. A failed run therefore leaves any
// previously installed binary untouched.
//
// # Integrity Model
//
// Every release publishes a checksums-sha256.txt manifest alongside its
// archives. The downloaded archive's SHA-256 digest must match the
// manifest entry for the exact archive filename; a missing entry and a
// digest mismatch are both integrity failures and equally abort the
// install.
//
// # Errors
//
// Stage failures are wrapped in *PipelineError, which records the stage
// as a first-class value. Callers branch on the stage via errors.As and
// Stage; the wrapped cause keeps the diagnostic detail (URL, path,
// expected vs. actual digest).
//
// # Usage
//
//	mgr, err := binary.NewManager(binary.Config{
//		BinDir:       binDir,
//		APIBase:      cfg.APIBase,
//		DownloadBase: cfg.DownloadBase,
//	})
//	if err != nil {
//		return err
//	}
//
//	res, err := mgr.Install(ctx, "")
//	if err != nil {
//		var perr *binary.PipelineError
//		if errors.As(err, &perr) {
//			// perr.Stage identifies the failing stage
//		}
//		return err
//	}
//	fmt.Println(res.Path)
package binary
