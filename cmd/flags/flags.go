package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func MustMarkRequired(cmd *cobra.Command, name string) {
	if err := cmd.MarkFlagRequired(name); err != nil {
		panic(err)
	}
}

// Describe lists the flags set on the command line as '--name=value', with the
// values of the given sensitive flags masked.
func Describe(cmd *cobra.Command, sensitive ...string) string {
	var args []string
	cmd.Flags().Visit(func(f *pflag.Flag) {
		value := f.Value.String()
		for _, s := range sensitive {
			if f.Name == s {
				value = "********"
			}
		}
		args = append(args, fmt.Sprintf("--%s=%s", f.Name, value))
	})
	return strings.Join(args, " ")
}
