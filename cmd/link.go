package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/bawes/myfatoorah/pkg/myfatoorah"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Create a hosted payment link",
	Long: `Create a payment link for a customer and a list of products.

Products are given as --product name:unitPrice:quantity and may be repeated:

  myfatoorah link --name Khalid --email k@example.com --phone 96512345678 \
    --return-url https://shop.example.com/ok --error-url https://shop.example.com/fail \
    --product "iPhone:9.750:5"`,
	RunE: runLink,
}

var (
	linkMode      string
	linkReference string
	linkName      string
	linkEmail     string
	linkPhone     string
	linkReturnURL string
	linkErrorURL  string
	linkProducts  []string
)

func init() {
	linkCmd.Flags().StringVar(&linkMode, "mode", "all", "payment mode: all, knet, visa, sadad, benefit, qpay, uaecc")
	linkCmd.Flags().StringVar(&linkReference, "reference", "", "merchant reference id (defaults to the current Unix time)")
	linkCmd.Flags().StringVar(&linkName, "name", "", "customer name")
	linkCmd.Flags().StringVar(&linkEmail, "email", "", "customer email")
	linkCmd.Flags().StringVar(&linkPhone, "phone", "", "customer phone")
	linkCmd.Flags().StringVar(&linkReturnURL, "return-url", "", "URL the customer returns to after paying")
	linkCmd.Flags().StringVar(&linkErrorURL, "error-url", "", "URL the customer returns to when payment fails")
	linkCmd.Flags().StringArrayVar(&linkProducts, "product", nil, "product as name:unitPrice:quantity (repeatable)")
}

func runLink(cmd *cobra.Command, _ []string) error {
	mode, err := myfatoorah.ParsePaymentMode(linkMode)
	if err != nil {
		return err
	}

	req := myfatoorah.NewPaymentRequest().
		WithPaymentMode(mode).
		WithCustomer(linkName, linkEmail, linkPhone).
		WithReferenceID(linkReference).
		WithReturnURL(linkReturnURL).
		WithErrorURL(linkErrorURL)

	for _, raw := range linkProducts {
		p, err := parseProduct(raw)
		if err != nil {
			return err
		}
		req = req.AddProduct(p.Name, p.UnitPrice, p.Quantity)
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	result, err := client.CreatePaymentLink(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "payment url:  %s\n", result.PaymentURL)
	fmt.Fprintf(out, "reference id: %s\n", result.PaymentReferenceID)
	fmt.Fprintf(out, "subtotal:     %s %s\n", req.Subtotal().StringFixed(3), client.Config().Currency)
	return nil
}

// parseProduct reads name:unitPrice:quantity. The name may itself contain
// colons; the last two fields are always price and quantity.
func parseProduct(raw string) (myfatoorah.Product, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 3 {
		return myfatoorah.Product{}, fmt.Errorf("product %q: want name:unitPrice:quantity", raw)
	}

	n := len(parts)
	name := strings.Join(parts[:n-2], ":")

	price, err := decimal.NewFromString(strings.TrimSpace(parts[n-2]))
	if err != nil {
		return myfatoorah.Product{}, fmt.Errorf("product %q: invalid unit price: %w", raw, err)
	}

	qty, err := strconv.Atoi(strings.TrimSpace(parts[n-1]))
	if err != nil {
		return myfatoorah.Product{}, fmt.Errorf("product %q: invalid quantity: %w", raw, err)
	}

	return myfatoorah.Product{Name: name, UnitPrice: price, Quantity: qty}, nil
}
