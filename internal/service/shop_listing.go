package service

import (
	"shop-catalog/internal/domain"
	"shop-catalog/internal/repository"
)

// Sort keys accepted by the shop listing
const (
	SortByName      = "name"
	SortByCreatedAt = "createdAt"
)

// ListStrategy identifies the query chosen for a shop listing
type ListStrategy int

const (
	ListAll ListStrategy = iota
	ListSortedByName
	ListSortedByCreatedAt
	ListSortedByProductCount
	ListNameContains
	ListVacationCreatedBetween
	ListVacationCreatedBefore
	ListVacationCreatedAfter
	ListVacation
	ListCreatedBetween
	ListCreatedBefore
	ListCreatedAfter
)

var listStrategyNames = map[ListStrategy]string{
	ListAll:                    "all",
	ListSortedByName:           "sorted-by-name",
	ListSortedByCreatedAt:      "sorted-by-created-at",
	ListSortedByProductCount:   "sorted-by-product-count",
	ListNameContains:           "name-contains",
	ListVacationCreatedBetween: "vacation-created-between",
	ListVacationCreatedBefore:  "vacation-created-before",
	ListVacationCreatedAfter:   "vacation-created-after",
	ListVacation:               "vacation",
	ListCreatedBetween:         "created-between",
	ListCreatedBefore:          "created-before",
	ListCreatedAfter:           "created-after",
}

func (s ListStrategy) String() string {
	if name, ok := listStrategyNames[s]; ok {
		return name
	}
	return "unknown"
}

// ShopListParams are the optional listing parameters; nil means absent.
// An empty SortBy is present.
type ShopListParams struct {
	SortBy        *string
	InVacations   *bool
	CreatedAfter  *domain.Date
	CreatedBefore *domain.Date
	Search        *string
}

// ShopListing is the query selected for a set of listing parameters
type ShopListing struct {
	Strategy ListStrategy
	Criteria repository.ShopCriteria
}

// ResolveShopListing selects exactly one listing query. Sorting wins over
// search, search wins over filters, and filters are only combined with each
// other.
func ResolveShopListing(params ShopListParams) ShopListing {
	if params.SortBy != nil {
		switch *params.SortBy {
		case SortByName:
			return ShopListing{ListSortedByName, repository.ShopCriteria{OrderBy: repository.ShopOrderByName}}
		case SortByCreatedAt:
			return ShopListing{ListSortedByCreatedAt, repository.ShopCriteria{OrderBy: repository.ShopOrderByCreatedAt}}
		default:
			return ShopListing{ListSortedByProductCount, repository.ShopCriteria{OrderBy: repository.ShopOrderByProductCount}}
		}
	}

	if params.Search != nil && *params.Search != "" {
		return ShopListing{ListNameContains, repository.ShopCriteria{NameContains: params.Search}}
	}

	vacation, after, before := params.InVacations, params.CreatedAfter, params.CreatedBefore

	switch {
	case vacation != nil && after != nil && before != nil:
		return ShopListing{ListVacationCreatedBetween, repository.ShopCriteria{
			InVacations:   vacation,
			CreatedAfter:  after,
			CreatedBefore: before,
		}}
	case vacation != nil && before != nil:
		return ShopListing{ListVacationCreatedBefore, repository.ShopCriteria{InVacations: vacation, CreatedBefore: before}}
	case vacation != nil && after != nil:
		return ShopListing{ListVacationCreatedAfter, repository.ShopCriteria{InVacations: vacation, CreatedAfter: after}}
	case vacation != nil:
		return ShopListing{ListVacation, repository.ShopCriteria{InVacations: vacation}}
	case after != nil && before != nil:
		return ShopListing{ListCreatedBetween, repository.ShopCriteria{
			CreatedBetween: &repository.DateRange{From: *after, To: *before},
		}}
	case before != nil:
		return ShopListing{ListCreatedBefore, repository.ShopCriteria{CreatedBefore: before}}
	case after != nil:
		return ShopListing{ListCreatedAfter, repository.ShopCriteria{CreatedAfter: after}}
	}

	return ShopListing{ListAll, repository.ShopCriteria{}}
}
