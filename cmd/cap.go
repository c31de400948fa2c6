package cmd

import (
	"log/slog"
	"mime"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"aeroqualify/internal/bootstrap"
	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/ports"
	"aeroqualify/internal/usecase/capa"
)

var capCmd = &cobra.Command{
	Use:   "cap",
	Short: "Submit Corrective Action Plans and manage their evidence",
}

var capSubmitCmd = &cobra.Command{
	Use:   "submit <car-id>",
	Short: "Save the CAP for a CAR; a complete plan with evidence moves it to Pending Verification",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		input := capa.SubmitCAPInput{CARID: flags.Arg(0)}
		input.ImmediateAction, _ = flags.GetString("immediate")
		input.RootCauseAnalysis, _ = flags.GetString("root-cause")
		input.CorrectiveAction, _ = flags.GetString("corrective")
		input.PreventiveAction, _ = flags.GetString("preventive")
		input.Evidence, input.Uploads, err = evidenceFromFlags(cmd)
		if err != nil {
			return err
		}

		result, err := svc.SubmitCAP(ctx, actor, input)
		if err != nil {
			logging.Error(ctx, "submit cap failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "submit cap")
		}
		return printJSON(cmd, result)
	}),
}

var capEvidenceAddCmd = &cobra.Command{
	Use:   "evidence-add <car-id>",
	Short: "Attach evidence to a CAR's plan",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}
		files, uploads, err := evidenceFromFlags(cmd)
		if err != nil {
			return err
		}
		result, err := svc.AddEvidence(cmd.Context(), actor, cmd.Flags().Arg(0), files, uploads)
		if err != nil {
			return errs.Wrap(err, "add evidence")
		}
		return printJSON(cmd, result)
	}),
}

var capEvidenceRemoveCmd = &cobra.Command{
	Use:   "evidence-remove <car-id> <index>",
	Short: "Remove one evidence entry by its zero-based index",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *capa.Service) error {
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}
		index, err := strconv.Atoi(cmd.Flags().Arg(1))
		if err != nil {
			return errs.Validation(errs.Wrap(err, "parse evidence index"))
		}
		result, err := svc.RemoveEvidence(cmd.Context(), actor, cmd.Flags().Arg(0), index)
		if err != nil {
			return errs.Wrap(err, "remove evidence")
		}
		return printJSON(cmd, result)
	}),
}

// evidenceFromFlags turns --evidence name=url pairs into references and
// --file paths into uploads for the evidence store.
func evidenceFromFlags(cmd *cobra.Command) ([]qms.EvidenceFile, []ports.EvidenceUpload, error) {
	refs, _ := cmd.Flags().GetStringToString("evidence")
	paths, _ := cmd.Flags().GetStringSlice("file")

	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	sort.Strings(names)
	files := make([]qms.EvidenceFile, 0, len(refs))
	for _, name := range names {
		files = append(files, qms.EvidenceFile{Name: name, URL: refs[name]})
	}

	uploads := make([]ports.EvidenceUpload, 0, len(paths))
	for _, path := range paths {
		data, err := readInput(cmd, path)
		if err != nil {
			return nil, nil, err
		}
		uploads = append(uploads, ports.EvidenceUpload{
			Name:        filepath.Base(path),
			ContentType: mime.TypeByExtension(filepath.Ext(path)),
			Data:        data,
		})
	}
	return files, uploads, nil
}

func addEvidenceFlags(cmd *cobra.Command) {
	cmd.Flags().StringToString("evidence", nil, "Evidence reference as name=url (repeatable)")
	cmd.Flags().StringSlice("file", nil, "Evidence file to upload (repeatable)")
}

func init() {
	rootCmd.AddCommand(capCmd)
	capCmd.AddCommand(capSubmitCmd, capEvidenceAddCmd, capEvidenceRemoveCmd)

	capSubmitCmd.Flags().String("immediate", "", "Immediate action")
	capSubmitCmd.Flags().String("root-cause", "", "Root cause analysis")
	capSubmitCmd.Flags().String("corrective", "", "Corrective action")
	capSubmitCmd.Flags().String("preventive", "", "Preventive action")
	addEvidenceFlags(capSubmitCmd)
	addEvidenceFlags(capEvidenceAddCmd)
}
