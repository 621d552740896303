package internal

import (
	"fmt"
	"os"

	"github.com/docuchat/billing/internal/domain/organization"
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/repository"
	"github.com/docuchat/billing/internal/types"
)

// OnboardOrganization creates an organization row. The provider customer is
// provisioned lazily on first checkout, so none is created here.
func OnboardOrganization() error {
	name := os.Getenv("ORG_NAME")
	if name == "" {
		return ierr.NewError("organization name is required").
			WithHint("Pass -org-name to the script").
			Mark(ierr.ErrValidation)
	}

	_, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewOrganizationRepository(db, log)
	ctx := scriptContext()

	org := &organization.Organization{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ORGANIZATION),
		Name:      name,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	if email := os.Getenv("ORG_EMAIL"); email != "" {
		org.BillingEmail = &email
	}
	if err := repo.Create(ctx, org); err != nil {
		return err
	}

	fmt.Printf("created organization %s (%s)\n", org.Name, org.ID)
	return nil
}
