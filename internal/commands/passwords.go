package commands

import (
	"fmt"
	"regexp"

	"github.com/DeprecatedLuar/sqldevcfg/internal/errors"
	"github.com/DeprecatedLuar/sqldevcfg/internal/presentation"
)

// SetPasswordsOptions selects connections by regular expressions searched
// (not anchored) in the name, user and host URL. All three must match.
type SetPasswordsOptions struct {
	NameRegex string
	UserRegex string
	HostRegex string
	Password  string
	DryRun    bool
}

// HandleSetPasswords sets the password of every matching connection in every
// installation. An empty password is prompted for without echo.
func HandleSetPasswords(rt *Runtime, opts SetPasswordsOptions) error {
	nameRe, err := compileFilter("name", opts.NameRegex)
	if err != nil {
		return err
	}
	userRe, err := compileFilter("user", opts.UserRegex)
	if err != nil {
		return err
	}
	hostRe, err := compileFilter("host", opts.HostRegex)
	if err != nil {
		return err
	}

	password := opts.Password
	if password == "" {
		password, err = rt.prompter().AskPassword("New password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	insts, err := rt.loadInstallations()
	if err != nil {
		return err
	}

	var (
		result []presentation.ChangeDTO
		errs   []error
	)
	for _, inst := range insts {
		dto := presentation.ChangeDTO{ConnectionsPath: inst.ConnectionsPath, Changed: []string{}, DryRun: opts.DryRun}
		err := inst.Err
		if err == nil {
			for _, rec := range inst.Registry.Records() {
				if !nameRe.MatchString(rec.Name()) || !userRe.MatchString(rec.User()) || !hostRe.MatchString(rec.Host()) {
					continue
				}
				if err = rec.SetPlaintext(password); err != nil {
					break
				}
				dto.Changed = append(dto.Changed, rec.Name())
			}
		}
		if err == nil && len(dto.Changed) > 0 {
			err = rt.commit(inst.Registry, "set-passwords", opts.DryRun)
		}
		if err != nil {
			dto.Error = err.Error()
			errs = append(errs, installationError(inst.ConnectionsPath, err))
		}
		result = append(result, dto)
	}

	if err := rt.output(result); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func compileFilter(field, expr string) (*regexp.Regexp, error) {
	if expr == "" {
		expr = ".*"
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid %s regex %q: %w", field, expr, err)
	}
	return re, nil
}
