// certgen is an offline certificate generation tool. It reads a YAML
// config describing a single issuance, loads the PEM private keys it
// names, and writes the resulting certificate out as PEM.
//
// Two kinds of issuance are supported, selected by the config's
// certificate-type field:
//
//	self-signed:   the subject key signs its own certificate
//	issuer-signed: a separate issuer key signs, under an issuer
//	               distinguished name given as a comma-delimited
//	               principal string
package main

import (
	"encoding/pem"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tnwang/credhub/goodkey"
	"github.com/tnwang/credhub/issuance"
	"github.com/tnwang/credhub/linter"
	blog "github.com/tnwang/credhub/log"
	"github.com/tnwang/credhub/principal"
	"github.com/tnwang/credhub/privatekey"
	"github.com/tnwang/credhub/serial"
	"github.com/tnwang/credhub/strictyaml"
)

type certProfile struct {
	Subject          string   `yaml:"subject"`
	DurationDays     int      `yaml:"duration-days"`
	AlternativeNames []string `yaml:"alternative-names"`
}

func (cp certProfile) validate() error {
	if cp.Subject == "" {
		return errors.New("certificate-profile.subject is required")
	}
	if cp.DurationDays <= 0 {
		return errors.New("certificate-profile.duration-days must be positive")
	}
	return nil
}

type certGenConfig struct {
	CertificateType string `yaml:"certificate-type"`
	SerialPrefix    uint8  `yaml:"serial-prefix"`
	Inputs          struct {
		SubjectKeyPath string `yaml:"subject-key-path"`
		IssuerKeyPath  string `yaml:"issuer-key-path"`
		Issuer         string `yaml:"issuer"`
	} `yaml:"inputs"`
	Outputs struct {
		CertificatePath string `yaml:"certificate-path"`
	} `yaml:"outputs"`
	CertProfile certProfile `yaml:"certificate-profile"`
	Lint        struct {
		Enabled   bool     `yaml:"enabled"`
		SkipLints []string `yaml:"skip-lints"`
	} `yaml:"lint"`
}

func (c certGenConfig) validate() error {
	switch c.CertificateType {
	case "self-signed":
		if c.Inputs.IssuerKeyPath != "" {
			return errors.New("inputs.issuer-key-path is not used for self-signed certificates")
		}
		if c.Inputs.Issuer != "" {
			return errors.New("inputs.issuer is not used for self-signed certificates")
		}
	case "issuer-signed":
		if c.Inputs.IssuerKeyPath == "" {
			return errors.New("inputs.issuer-key-path is required")
		}
		if c.Inputs.Issuer == "" {
			return errors.New("inputs.issuer is required")
		}
	case "":
		return errors.New("certificate-type is required")
	default:
		return errors.New("certificate-type can only be 'self-signed' or 'issuer-signed'")
	}

	if c.SerialPrefix == 0 {
		return errors.New("serial-prefix must be between 1 and 255")
	}
	if c.Inputs.SubjectKeyPath == "" {
		return errors.New("inputs.subject-key-path is required")
	}
	if c.Outputs.CertificatePath == "" {
		return errors.New("outputs.certificate-path is required")
	}

	return c.CertProfile.validate()
}

func generate(config certGenConfig) (*issuance.Certificate, error) {
	subjectKey, err := privatekey.Load(config.Inputs.SubjectKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load subject key: %w", err)
	}
	err = privatekey.Verify(subjectKey)
	if err != nil {
		return nil, fmt.Errorf("subject key failed verification: %w", err)
	}

	subject, err := principal.Parse(config.CertProfile.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subject: %w", err)
	}

	serials, err := serial.NewSource(config.SerialPrefix)
	if err != nil {
		return nil, err
	}
	clk := clock.New()
	issuer := issuance.NewIssuer(goodkey.NewKeyPolicy(), serials, clk, prometheus.NewRegistry(), blog.NewStdoutLogger(clk))

	req := &issuance.Request{
		Subject:          subject,
		DurationDays:     config.CertProfile.DurationDays,
		AlternativeNames: config.CertProfile.AlternativeNames,
	}

	if config.CertificateType == "self-signed" {
		return issuer.IssueSelfSigned(subjectKey, req)
	}

	issuerKey, err := privatekey.Load(config.Inputs.IssuerKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load issuer key: %w", err)
	}
	err = privatekey.Verify(issuerKey)
	if err != nil {
		return nil, fmt.Errorf("issuer key failed verification: %w", err)
	}
	return issuer.IssueSignedByIssuer(config.Inputs.Issuer, issuerKey, subjectKey, req)
}

func writeCert(cert *issuance.Certificate, certPath string) error {
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.DER()})
	err := os.WriteFile(certPath, pemBytes, 0644)
	if err != nil {
		return fmt.Errorf("failed to write certificate to %q: %w", certPath, err)
	}
	log.Printf("Certificate written to %q\n", certPath)
	return nil
}

func main() {
	configPath := flag.String("config", "", "Path to certgen configuration file")
	flag.Parse()

	if *configPath == "" {
		log.Fatal("--config is required")
	}
	configBytes, err := os.ReadFile(*configPath)
	if err != nil {
		log.Fatalf("Failed to read config file: %s", err)
	}
	var config certGenConfig
	err = strictyaml.Unmarshal(configBytes, &config)
	if err != nil {
		log.Fatalf("Failed to parse config: %s", err)
	}
	err = config.validate()
	if err != nil {
		log.Fatalf("Invalid config: %s", err)
	}

	cert, err := generate(config)
	if err != nil {
		log.Fatalf("certificate generation failed: %s", err)
	}

	if config.Lint.Enabled {
		err = linter.CheckDER(cert.DER(), config.Lint.SkipLints)
		if err != nil {
			log.Fatalf("certificate failed linting: %s", err)
		}
		log.Println("Certificate passed linting")
	}

	err = writeCert(cert, config.Outputs.CertificatePath)
	if err != nil {
		log.Fatal(err)
	}
}
