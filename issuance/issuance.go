// Package issuance assembles and signs X.509 certificates from
// declarative parameters, a subject key pair, and an issuer that is
// either the subject itself or an external principal with its own
// signing key.
package issuance

import (
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"net"
	"strings"

	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"

	cerrors "github.com/tnwang/credhub/errors"
	"github.com/tnwang/credhub/goodkey"
	"github.com/tnwang/credhub/identifier"
	blog "github.com/tnwang/credhub/log"
	"github.com/tnwang/credhub/principal"
	"github.com/tnwang/credhub/serial"
)

// Request describes the declarative parameters of a single certificate
// issuance. It is immutable input: the issuer never modifies it.
type Request struct {
	// Subject is the certificate's subject name, already in
	// construction order (most specific component last).
	Subject principal.DistinguishedName

	// DurationDays is the length of the validity window in whole
	// days. It must be positive.
	DurationDays int

	// AlternativeNames are the raw subject-alternative-name strings.
	// They are classified during issuance; an unclassifiable entry
	// fails the whole call with a Malformed error.
	AlternativeNames []string
}

// Certificate is a finished, signed certificate. The DER encoding is
// available as Raw on the embedded x509.Certificate; subject, issuer,
// validity window and serial number are available as parsed fields, so
// downstream consumers never re-parse the raw bytes.
type Certificate struct {
	*x509.Certificate

	// AlternativeNames is the classified form of the request's
	// alternative names, in request order. Empty when the request
	// carried none.
	AlternativeNames []identifier.AltName
}

// DER returns the certificate's DER encoding.
func (c *Certificate) DER() []byte {
	return c.Raw
}

const (
	purposeSelfSigned   = "self-signed"
	purposeIssuerSigned = "issuer-signed"
)

// Issuer is capable of issuing new certificates. All of its
// collaborators are injected: the clock and serial source must be safe
// for concurrent use, and then so is the Issuer.
type Issuer struct {
	keyPolicy goodkey.KeyPolicy
	serials   serial.Source
	clk       clock.Clock
	log       blog.Logger

	signatureCount *prometheus.CounterVec
	signErrorCount *prometheus.CounterVec
}

// NewIssuer constructs an Issuer and registers its metrics with stats.
func NewIssuer(keyPolicy goodkey.KeyPolicy, serials serial.Source, clk clock.Clock, stats prometheus.Registerer, logger blog.Logger) *Issuer {
	signatureCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signatures",
			Help: "Number of certificates signed, labeled by purpose",
		},
		[]string{"purpose"})
	stats.MustRegister(signatureCount)

	signErrorCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signature_errors",
			Help: "Number of failed signing operations, labeled by cause",
		},
		[]string{"cause"})
	stats.MustRegister(signErrorCount)

	return &Issuer{
		keyPolicy:      keyPolicy,
		serials:        serials,
		clk:            clk,
		log:            logger,
		signatureCount: signatureCount,
		signErrorCount: signErrorCount,
	}
}

// IssueSelfSigned issues a certificate whose issuer is the subject
// itself: the subject name doubles as the issuer name and the key
// material's private key signs.
func (i *Issuer) IssueSelfSigned(key crypto.Signer, req *Request) (*Certificate, error) {
	return i.issue(req.Subject, key, key, req, purposeSelfSigned)
}

// IssueSignedByIssuer issues a certificate signed by an external
// issuer. issuerPrincipal is a serialized principal name in the
// conventional most-specific-first order; it is normalized into
// construction order before use.
func (i *Issuer) IssueSignedByIssuer(issuerPrincipal string, issuerKey crypto.Signer, key crypto.Signer, req *Request) (*Certificate, error) {
	issuerDN, err := principal.Normalize(issuerPrincipal)
	if err != nil {
		return nil, err
	}
	return i.issue(issuerDN, issuerKey, key, req, purposeIssuerSigned)
}

// issue is the procedure shared by both entry points. Validation
// (duration, alternative names) happens before a serial number is
// consumed, so a request rejected as malformed has no side effects.
// Either the full pipeline succeeds and a complete certificate is
// returned, or it fails and nothing is returned.
func (i *Issuer) issue(issuerDN principal.DistinguishedName, signer crypto.Signer, key crypto.Signer, req *Request, purpose string) (*Certificate, error) {
	if req.DurationDays <= 0 {
		return nil, cerrors.MalformedError("certificate duration must be a positive number of days, got %d", req.DurationDays)
	}

	var altNames []identifier.AltName
	if len(req.AlternativeNames) > 0 {
		var err error
		altNames, err = identifier.Classify(req.AlternativeNames)
		if err != nil {
			return nil, err
		}
	}

	err := i.keyPolicy.GoodKey(key.Public())
	if err != nil {
		return nil, cerrors.InternalServerError("subject key rejected by key policy: %s", err)
	}

	subjectDER, err := req.Subject.DER()
	if err != nil {
		return nil, err
	}
	issuerDER, err := issuerDN.DER()
	if err != nil {
		return nil, err
	}

	serialNumber, err := i.serials.Generate()
	if err != nil {
		i.signErrorCount.With(prometheus.Labels{"cause": "serial"}).Inc()
		i.log.AuditErrf("Serial generation failure: err=[%s]", err)
		return nil, err
	}

	notBefore := i.clk.Now()
	template := &x509.Certificate{
		SignatureAlgorithm: x509.SHA256WithRSA,
		SerialNumber:       serialNumber,
		NotBefore:          notBefore,
		NotAfter:           notBefore.AddDate(0, 0, req.DurationDays),
		RawSubject:         subjectDER,
	}
	if len(altNames) > 0 {
		ext, err := alternativeNamesExtension(altNames)
		if err != nil {
			return nil, err
		}
		template.ExtraExtensions = append(template.ExtraExtensions, ext)
	}

	// The parent carries only the issuer name; in the self-signed
	// case it is identical to the subject name.
	parent := &x509.Certificate{RawSubject: issuerDER}

	der, err := x509.CreateCertificate(rand.Reader, template, parent, key.Public(), signer)
	if err != nil {
		i.signErrorCount.With(prometheus.Labels{"cause": "signing"}).Inc()
		i.log.AuditErrf("Signing failure: serial=[%s] subject=[%s] err=[%s]",
			serial.String(serialNumber), req.Subject, err)
		return nil, cerrors.InternalServerError("failed to sign certificate: %s", err)
	}
	i.signatureCount.With(prometheus.Labels{"purpose": purpose}).Inc()

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, cerrors.InternalServerError("failed to parse signed certificate: %s", err)
	}

	i.log.AuditInfof("Issuance success: serial=[%s] subject=[%s] issuer=[%s] san=[%d]",
		serial.String(serialNumber), req.Subject, issuerDN, len(altNames))

	return &Certificate{Certificate: cert, AlternativeNames: altNames}, nil
}

// OID for the subject alternative name extension, RFC 5280 4.2.1.6.
var sanOID = asn1.ObjectIdentifier{2, 5, 29, 17}

// alternativeNamesExtension builds the non-critical SAN extension. The
// GeneralNames are hand-marshaled: an IP entry may carry a
// CIDR-style suffix from classification, which stays on the classified
// value while the iPAddress GeneralName carries the bare address.
func alternativeNamesExtension(altNames []identifier.AltName) (pkix.Extension, error) {
	generalNames := make([]asn1.RawValue, 0, len(altNames))
	for _, an := range altNames {
		switch an.Type {
		case identifier.DNS:
			generalNames = append(generalNames, asn1.RawValue{
				Class: asn1.ClassContextSpecific,
				Tag:   2, // dNSName
				Bytes: []byte(an.Value),
			})
		case identifier.IP:
			addr, _, _ := strings.Cut(an.Value, "/")
			ip := net.ParseIP(addr).To4()
			if ip == nil {
				return pkix.Extension{}, cerrors.InternalServerError("failed to encode IP address %q", an.Value)
			}
			generalNames = append(generalNames, asn1.RawValue{
				Class: asn1.ClassContextSpecific,
				Tag:   7, // iPAddress
				Bytes: ip,
			})
		default:
			return pkix.Extension{}, cerrors.InternalServerError("unknown alternative name type %q", an.Type)
		}
	}

	der, err := asn1.Marshal(generalNames)
	if err != nil {
		return pkix.Extension{}, cerrors.InternalServerError("failed to encode alternative names: %s", err)
	}
	return pkix.Extension{Id: sanOID, Value: der}, nil
}
