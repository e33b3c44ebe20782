package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ex2code/internal/db"
	"ex2code/pkg/binder"
)

var (
	callFunc   string
	callClass  string
	callMethod string
	callStatic bool
)

var callCmd = &cobra.Command{
	Use:   "call <id> [args...]",
	Short: "Rebind a stored artifact and call it.",
	Long: `Arguments are parsed as YAML values, so 3 is an int, 2.5 a float,
[1, 2] a list and anything else a string.

  ex2code call <id> 1 2                          # function
  ex2code call <id> --method add                 # method on a new instance
  ex2code call <id> --method multiply --static 2 3
  ex2code call <id> --func add 1 2               # module function
  ex2code call <id> --class Stack --method Len   # module type`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		values, err := parseArgs(args[1:])
		if err != nil {
			return err
		}

		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		rec, err := db.GetArtifact(ctx, database, args[0])
		if err != nil {
			return err
		}
		art, err := rec.Restore(ctx, newBinder())
		if err != nil {
			return err
		}

		var out []any
		switch a := art.(type) {
		case *binder.Function:
			out, err = a.Call(values...)
		case *binder.Class:
			out, err = callClassMethod(cmd, a, values)
		case *binder.Module:
			switch {
			case callFunc != "":
				out, err = a.Call(ctx, callFunc, values...)
			case callClass != "":
				var c *binder.Class
				if c, err = a.Class(callClass); err == nil {
					out, err = callClassMethod(cmd, c, values)
				}
			default:
				return fmt.Errorf("module %s: use --func or --class (declares %v)", a.Name(), a.Names())
			}
		default:
			return fmt.Errorf("cannot call a %s", art.Kind())
		}
		if err != nil {
			return err
		}
		for _, v := range out {
			fmt.Printf("%#v\n", v)
		}
		return nil
	},
}

func callClassMethod(cmd *cobra.Command, c *binder.Class, values []any) ([]any, error) {
	ctx := cmd.Context()
	if callMethod == "" {
		return nil, fmt.Errorf("type %s: --method is required", c.Name())
	}
	if callStatic {
		f, err := c.Static(ctx, callMethod)
		if err != nil {
			return nil, err
		}
		return f.Call(values...)
	}
	obj, err := c.New(ctx)
	if err != nil {
		return nil, err
	}
	return obj.Call(ctx, callMethod, values...)
}

func parseArgs(args []string) ([]any, error) {
	values := make([]any, len(args))
	for i, a := range args {
		if err := yaml.Unmarshal([]byte(a), &values[i]); err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		if values[i] == nil {
			values[i] = a
		}
	}
	return values, nil
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().StringVar(&callFunc, "func", "", "Module function to call")
	callCmd.Flags().StringVar(&callClass, "class", "", "Module type to use")
	callCmd.Flags().StringVar(&callMethod, "method", "", "Method to call")
	callCmd.Flags().BoolVar(&callStatic, "static", false, "Call the method without an instance")
}
