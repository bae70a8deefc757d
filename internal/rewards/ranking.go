package rewards

import (
	"cmp"
	"slices"
	"strings"

	"github.com/nhle/task-rewards/internal/model"
)

// UserRank is one row of the points leaderboard.
type UserRank struct {
	Position    int
	UserID      int
	Username    string
	TotalPoints int
}

// ProductRank is one row of the most-redeemed products list.
type ProductRank struct {
	Position  int
	ProductID int
	Name      string
	Approved  int
}

// UserRanking orders users by lifetime points, highest first. It reads
// the current snapshot only.
func (s *Service) UserRanking() []UserRank {
	var ranks []UserRank
	_ = s.docs.Read(func(doc *model.Document) error {
		for _, u := range doc.Users {
			ranks = append(ranks, UserRank{UserID: u.ID, Username: u.Username, TotalPoints: u.TotalPoints})
		}
		return nil
	})

	slices.SortStableFunc(ranks, func(a, b UserRank) int {
		if c := cmp.Compare(b.TotalPoints, a.TotalPoints); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(a.Username), strings.ToLower(b.Username))
	})
	for i := range ranks {
		ranks[i].Position = i + 1
	}
	return ranks
}

// ProductRanking orders products by number of approved requests, most
// first. It reads the current snapshot only.
func (s *Service) ProductRanking() []ProductRank {
	var ranks []ProductRank
	_ = s.docs.Read(func(doc *model.Document) error {
		approved := make(map[int]int)
		for _, r := range doc.Requests {
			if r.Status() == model.StatusApproved {
				approved[r.ProductID]++
			}
		}
		for _, p := range doc.Products {
			ranks = append(ranks, ProductRank{ProductID: p.ID, Name: p.Name, Approved: approved[p.ID]})
		}
		return nil
	})

	slices.SortStableFunc(ranks, func(a, b ProductRank) int {
		if c := cmp.Compare(b.Approved, a.Approved); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	for i := range ranks {
		ranks[i].Position = i + 1
	}
	return ranks
}
