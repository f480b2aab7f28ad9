package command

import (
	"fmt"

	"yamdb/database"
	"yamdb/internal/mailer"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"

	"github.com/spf13/cobra"
)

var (
	superuserName  string
	superuserEmail string
)

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create an administrator and print a confirmation code",
	Long: `Creates a superuser with the admin role. The printed confirmation code can be
exchanged for an access token at POST /api/v1/auth/token/.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		users := repository.NewUserRepository(db)
		user, err := service.NewUserService(users).CreateSuperuser(cmd.Context(), superuserName, superuserEmail)
		if err != nil {
			return fmt.Errorf("failed to create superuser: %w", err)
		}

		codes := service.NewConfirmationCodes(cfg.JWTSecret, cfg.ConfirmationCodeTTL)
		auth := service.NewAuthService(users, codes, mailer.LogDispatcher{}, nil, cfg)

		out := cmd.OutOrStdout()
		success.Fprintln(out, "✓ Superuser created successfully!")
		fmt.Fprintf(out, "Username: %s\n", user.Username)
		fmt.Fprintf(out, "Email: %s\n", user.Email)
		highlight.Fprintf(out, "Confirmation code: %s\n", auth.IssueConfirmationCode(user))
		return nil
	},
}

func init() {
	createSuperuserCmd.Flags().StringVar(&superuserName, "username", "", "username of the new superuser")
	createSuperuserCmd.Flags().StringVar(&superuserEmail, "email", "", "e-mail of the new superuser")
	_ = createSuperuserCmd.MarkFlagRequired("username")
	_ = createSuperuserCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(createSuperuserCmd)
}
