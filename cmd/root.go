package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Giladt2789/pods-limit-checker-tool/pkg/annotate"
	"github.com/Giladt2789/pods-limit-checker-tool/pkg/kube"
	"github.com/Giladt2789/pods-limit-checker-tool/pkg/output"
	"github.com/Giladt2789/pods-limit-checker-tool/pkg/scan"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pods-limit-checker",
	Short: "Check Kubernetes pods for missing resource limits",
	Long: `Scans a cluster for containers that omit CPU and/or memory resource
limits, reports the violations, and can optionally mark the offending pods
with a warning annotation. Violations are data, not errors: the exit code
is zero whenever the scan itself completed.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runScan(); err != nil {
			logrus.Error(err)
			os.Exit(1)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("namespace", "n", "", "Check pods in a specific namespace. If not provided, checks all namespaces.")
	viper.BindPFlag("namespace", rootCmd.PersistentFlags().Lookup("namespace"))
	rootCmd.PersistentFlags().Bool("annotate", false, "Annotate violating pods with warning=no-cpu-limit, no-memory-limit or no-limits. Can also be set via the ANNOTATE environment variable.")
	viper.BindPFlag("annotate", rootCmd.PersistentFlags().Lookup("annotate"))
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format: table, json or csv.")
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	rootCmd.PersistentFlags().String("output-file", "", "Also write the JSON report to this file.")
	viper.BindPFlag("output-file", rootCmd.PersistentFlags().Lookup("output-file"))
	rootCmd.PersistentFlags().String("log-level", "info", "Logging level: debug, info, warning or error.")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	rootCmd.PersistentFlags().Int("timeout", 60, "Timeout in seconds for the whole scan run.")
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	rootCmd.PersistentFlags().Int("annotation-workers", 5, "How many pods to annotate concurrently.")
	viper.BindPFlag("annotation-workers", rootCmd.PersistentFlags().Lookup("annotation-workers"))
	rootCmd.PersistentFlags().Int("annotation-rate", 120, "Annotation patch calls allowed per minute.")
	viper.BindPFlag("annotation-rate", rootCmd.PersistentFlags().Lookup("annotation-rate"))
	viper.AutomaticEnv() // read in environment variables that match
}

func runScan() error {
	level, err := logrus.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(level)

	format, err := output.ParseFormat(viper.GetString("output"))
	if err != nil {
		return err
	}

	scope := scan.AllNamespaces()
	if namespace := viper.GetString("namespace"); namespace != "" {
		scope = scan.InNamespace(namespace)
	}

	client, err := kube.GetClient()
	if err != nil {
		return err
	}
	logrus.Info("connected to kube")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(viper.GetInt("timeout"))*time.Second)
	defer cancel()

	startedAt := time.Now().UTC()
	records, err := scan.Collect(ctx, client, scope)
	if err != nil {
		return err
	}

	report := scan.Evaluate(records, scope, startedAt)
	logrus.Infof("found %d container(s) with missing resource limits", len(report.Records))

	var outcomes []scan.AnnotationOutcome
	var annotationErr error
	if viper.GetBool("annotate") {
		violations := scan.PodViolations(report.Records)
		if len(violations) == 0 {
			logrus.Info("no pods with missing limits found - nothing to annotate")
		} else {
			annotator := annotate.New(client, annotate.Config{
				Workers:       viper.GetInt("annotation-workers"),
				RatePerMinute: viper.GetInt("annotation-rate"),
			})
			outcomes, annotationErr = annotator.Apply(ctx, violations)
			logAnnotationResults(outcomes)
		}
	}

	if err := output.Render(format, report, outcomes); err != nil {
		return err
	}
	if path := viper.GetString("output-file"); path != "" {
		if err := output.WriteFile(path, report, outcomes); err != nil {
			return err
		}
	}

	// Per-pod annotation failures are data in the outcomes; only an aborted
	// annotation phase (forbidden) makes the run itself fail.
	return annotationErr
}

func logAnnotationResults(outcomes []scan.AnnotationOutcome) {
	applied := 0
	failed := 0
	for _, outcome := range outcomes {
		if outcome.Applied {
			applied++
		} else {
			failed++
		}
	}
	logrus.Infof("annotation results: %d successful, %d failed", applied, failed)
	if failed > 0 {
		logrus.Warnf("%d pod(s) could not be annotated, check logs for details", failed)
	}
}
