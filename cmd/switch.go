package cmd

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/whatthepatch/wtp/internal/config"
	"github.com/whatthepatch/wtp/internal/engine"
	"github.com/whatthepatch/wtp/internal/printers"
)

// knownModels offers a starting point per API engine; anything can still be
// typed in manually.
var knownModels = map[string][]string{
	"claude-api": {
		"claude-sonnet-4-20250514",
		"claude-opus-4-20250514",
		"claude-3-5-haiku-20241022",
	},
	"openai-api": {
		"gpt-4o",
		"gpt-4o-mini",
		"gpt-4.1",
	},
	"gemini-api": {
		"gemini-1.5-pro",
		"gemini-1.5-flash",
	},
	"ollama": {
		"llama3.1",
		"qwen2.5-coder",
		"mistral",
		"deepseek-r1",
	},
}

const customModelChoice = "(enter manually)"

// switchEngineCmd represents the switch-engine command
var switchEngineCmd = &cobra.Command{
	Use:   "switch-engine [name]",
	Short: "Change the active AI engine.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		var name string
		if len(args) == 1 {
			name = args[0]
		} else {
			_, name, err = printers.Select("Select the engine", engine.Names())
			if err != nil {
				return err
			}
		}

		if _, err := engine.Get(name, cfg.EngineConfig(name)); err != nil {
			return err
		}
		if err := cfg.SetEngine(name); err != nil {
			return err
		}
		printers.Success("active engine is now %s", name)
		return nil
	},
}

// switchModelCmd represents the switch-model command
var switchModelCmd = &cobra.Command{
	Use:   "switch-model [model]",
	Short: "Change the model of the active engine.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		eng, err := engine.Get(cfg.Engine, cfg.EngineConfig(cfg.Engine))
		if err != nil {
			return err
		}
		if eng.Info().CLI {
			return fmt.Errorf("%s delegates model selection to the tool itself", cfg.Engine)
		}

		var model string
		if len(args) == 1 {
			model = args[0]
		} else {
			model, err = pickModel(cfg.Engine)
			if err != nil {
				return err
			}
		}

		if err := cfg.SetModel(cfg.Engine, model); err != nil {
			return err
		}
		printers.Success("%s now uses %s", cfg.Engine, model)
		return nil
	},
}

func pickModel(engineName string) (string, error) {
	items := append(append([]string{}, knownModels[engineName]...), customModelChoice)

	_, choice, err := printers.Select("Select the model for "+engineName, items)
	if err != nil {
		return "", err
	}
	if choice != customModelChoice {
		return choice, nil
	}

	prompt := promptui.Prompt{
		Label: "Model name",
		Validate: func(s string) error {
			if s == "" {
				return fmt.Errorf("model name cannot be empty")
			}
			return nil
		},
	}
	return prompt.Run()
}

func init() {
	rootCmd.AddCommand(switchEngineCmd)
	rootCmd.AddCommand(switchModelCmd)
}
