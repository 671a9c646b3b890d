package database

import "renewal_reminders/internal/domain/reminder"

// Candidate queries over the back-office tables, one per service type.
// Every query returns the candidateRow column set and takes
// $1 = last expiry date in the look-ahead window, $2 = earliest overdue expiry date.
var candidateQueries = map[reminder.ServiceType]string{
	reminder.ServiceVehicleInsurance: `
        SELECT CAST(p.id AS TEXT) AS id,
               p.policy_end_date  AS expiry_date,
               NULL::date         AS start_date,
               NULL::integer      AS term_years,
               c.name             AS recipient_name,
               c.email            AS recipient_email,
               c.mobile           AS recipient_phone,
               p.policy_number    AS reference_no,
               p.vehicle_number   AS subject_name,
               CAST(p.premium_amount AS TEXT) AS amount,
               c.company_name     AS company_name
          FROM vehicle_policies p
          JOIN consumers c ON c.id = p.consumer_id
         WHERE p.status = 'active'
           AND p.policy_end_date <= $1
           AND p.policy_end_date >= $2
         ORDER BY p.policy_end_date, p.id`,

	reminder.ServiceHealthInsurance: `
        SELECT CAST(p.id AS TEXT) AS id,
               p.policy_end_date  AS expiry_date,
               NULL::date         AS start_date,
               NULL::integer      AS term_years,
               c.name             AS recipient_name,
               c.email            AS recipient_email,
               c.mobile           AS recipient_phone,
               p.policy_number    AS reference_no,
               p.insured_name     AS subject_name,
               CAST(p.premium_amount AS TEXT) AS amount,
               c.company_name     AS company_name
          FROM health_policies p
          JOIN consumers c ON c.id = p.consumer_id
         WHERE p.status = 'active'
           AND p.policy_end_date <= $1
           AND p.policy_end_date >= $2
         ORDER BY p.policy_end_date, p.id`,

	reminder.ServiceECPInsurance: `
        SELECT CAST(p.id AS TEXT) AS id,
               p.policy_end_date  AS expiry_date,
               NULL::date         AS start_date,
               NULL::integer      AS term_years,
               co.contact_person  AS recipient_name,
               co.email           AS recipient_email,
               co.mobile          AS recipient_phone,
               p.policy_number    AS reference_no,
               co.company_name    AS subject_name,
               CAST(p.premium_amount AS TEXT) AS amount,
               co.company_name    AS company_name
          FROM ecp_policies p
          JOIN companies co ON co.id = p.company_id
         WHERE p.status = 'active'
           AND p.policy_end_date <= $1
           AND p.policy_end_date >= $2
         ORDER BY p.policy_end_date, p.id`,

	reminder.ServiceFireInsurance: `
        SELECT CAST(p.id AS TEXT) AS id,
               p.policy_end_date  AS expiry_date,
               NULL::date         AS start_date,
               NULL::integer      AS term_years,
               co.contact_person  AS recipient_name,
               co.email           AS recipient_email,
               co.mobile          AS recipient_phone,
               p.policy_number    AS reference_no,
               p.premises_address AS subject_name,
               CAST(p.sum_insured AS TEXT) AS amount,
               co.company_name    AS company_name
          FROM fire_policies p
          JOIN companies co ON co.id = p.company_id
         WHERE p.status = 'active'
           AND p.policy_end_date <= $1
           AND p.policy_end_date >= $2
         ORDER BY p.policy_end_date, p.id`,

	// policy_end_date is filled by a later migration; older rows only have
	// policy_start_date and ppt, so the window is checked on the derived date.
	reminder.ServiceLifeInsurance: `
        SELECT CAST(p.id AS TEXT)  AS id,
               p.policy_end_date   AS expiry_date,
               p.policy_start_date AS start_date,
               p.ppt               AS term_years,
               c.name              AS recipient_name,
               c.email             AS recipient_email,
               c.mobile            AS recipient_phone,
               p.policy_number     AS reference_no,
               p.plan_name         AS subject_name,
               CAST(p.premium_amount AS TEXT) AS amount,
               c.company_name      AS company_name
          FROM life_policies p
          JOIN consumers c ON c.id = p.consumer_id
         WHERE p.status = 'active'
           AND COALESCE(p.policy_end_date, (p.policy_start_date + make_interval(years => p.ppt))::date) <= $1
           AND COALESCE(p.policy_end_date, (p.policy_start_date + make_interval(years => p.ppt))::date) >= $2
         ORDER BY p.id`,

	reminder.ServiceLabourLicense: `
        SELECT CAST(l.id AS TEXT) AS id,
               l.expiry_date      AS expiry_date,
               NULL::date         AS start_date,
               NULL::integer      AS term_years,
               co.contact_person  AS recipient_name,
               co.email           AS recipient_email,
               co.mobile          AS recipient_phone,
               l.license_number   AS reference_no,
               l.establishment_name AS subject_name,
               CAST(l.fees AS TEXT) AS amount,
               co.company_name    AS company_name
          FROM labour_licenses l
          JOIN companies co ON co.id = l.company_id
         WHERE l.expiry_date <= $1
           AND l.expiry_date >= $2
         ORDER BY l.expiry_date, l.id`,

	reminder.ServiceDSC: `
        SELECT CAST(d.id AS TEXT) AS id,
               d.expiry_date      AS expiry_date,
               NULL::date         AS start_date,
               NULL::integer      AS term_years,
               d.holder_name      AS recipient_name,
               d.email            AS recipient_email,
               d.mobile           AS recipient_phone,
               d.certificate_number AS reference_no,
               d.holder_name      AS subject_name,
               NULL::text         AS amount,
               d.company_name     AS company_name
          FROM dsc_records d
         WHERE d.status = 'in'
           AND d.expiry_date <= $1
           AND d.expiry_date >= $2
         ORDER BY d.expiry_date, d.id`,

	reminder.ServiceFactoryQuotation: `
        SELECT CAST(q.id AS TEXT) AS id,
               q.renewal_date     AS expiry_date,
               NULL::date         AS start_date,
               NULL::integer      AS term_years,
               co.contact_person  AS recipient_name,
               co.email           AS recipient_email,
               co.mobile          AS recipient_phone,
               q.quotation_number AS reference_no,
               q.factory_name     AS subject_name,
               CAST(q.total_amount AS TEXT) AS amount,
               co.company_name    AS company_name
          FROM factory_quotations q
          JOIN companies co ON co.id = q.company_id
         WHERE q.status = 'approved'
           AND q.renewal_date <= $1
           AND q.renewal_date >= $2
         ORDER BY q.renewal_date, q.id`,
}
